package value

// Confidence is the ordered trust level attached to an analysis result.
// Combining results takes the minimum, so one uncertain input lowers the
// whole aggregate.
type Confidence int

const (
	// Manual: the value cannot be determined statically at all; a human has
	// to look.
	Manual Confidence = iota
	// Low: a value was produced but rests on assumptions likely to be wrong.
	Low
	// Partial: parts of the value are known, parts are gaps.
	Partial
	// High: the value is known modulo benign simplifications.
	High
	// Exact: the value is fully determined.
	Exact
)

var confidenceNames = [...]string{
	Manual:  "manual",
	Low:     "low",
	Partial: "partial",
	High:    "high",
	Exact:   "exact",
}

func (c Confidence) String() string {
	if c < Manual || c > Exact {
		return "unknown"
	}
	return confidenceNames[c]
}

// Result pairs a best-effort value with the confidence it deserves and the
// gaps encountered producing it. Operations return a Result instead of
// failing: a caller always gets the most that could be determined.
type Result[T any] struct {
	Value      T
	Confidence Confidence
	Gaps       []Gap
}

// ExactResult wraps a fully determined value.
func ExactResult[T any](v T) Result[T] {
	return Result[T]{Value: v, Confidence: Exact}
}

// HighResult wraps a value known modulo the given gaps.
func HighResult[T any](v T, gaps ...Gap) Result[T] {
	return Result[T]{Value: v, Confidence: High, Gaps: gaps}
}

// PartialResult wraps a value with known holes.
func PartialResult[T any](v T, gaps ...Gap) Result[T] {
	return Result[T]{Value: v, Confidence: Partial, Gaps: gaps}
}

// ManualResult wraps the zero value with gaps explaining why nothing could be
// determined.
func ManualResult[T any](gaps ...Gap) Result[T] {
	var zero T
	return Result[T]{Value: zero, Confidence: Manual, Gaps: gaps}
}

// Combine folds N results into one: fold sees the unwrapped values in input
// order, the output confidence is the minimum across inputs, and the gap
// lists concatenate in input order. An empty input combines to an Exact
// result over fold(nil).
func Combine[T, U any](results []Result[T], fold func([]T) U) Result[U] {
	conf := Exact
	var gaps []Gap
	vals := make([]T, len(results))
	for i, r := range results {
		vals[i] = r.Value
		if r.Confidence < conf {
			conf = r.Confidence
		}
		gaps = append(gaps, r.Gaps...)
	}
	return Result[U]{Value: fold(vals), Confidence: conf, Gaps: gaps}
}
