package understory

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/jward/understory/internal/parse"
)

// workItem holds everything a parallel analysis worker needs.
type workItem struct {
	path string
	hash string
	src  []byte
}

type workResult struct {
	item workItem
	fa   *FileAnalysis
	err  error
}

// IndexDirectoryParallel indexes a directory using a three-phase pipeline:
//
//	Phase A (serial):  Walk, hash check, collect changed files.
//	Phase B (parallel): Parse and analyze via worker pool.
//	Phase C (serial):  Commit results to SQLite.
//
// Analysis dominates indexing time, so only Phase B is fanned out; SQLite
// keeps a single writer.
func (e *Engine) IndexDirectoryParallel(ctx context.Context, dir string, workers int) (*IndexSummary, error) {
	summary := &IndexSummary{}

	// ---- Phase A: serial file preparation ----
	var items []workItem
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		item, skip, err := e.prepareFile(path)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}
		if item.src == nil {
			summary.Skipped++
			return nil
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("understory: index %s: %w", dir, err)
	}
	if len(items) == 0 {
		return summary, nil
	}

	// ---- Phase B: parallel analysis ----
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	resultCh := make(chan workResult, len(items))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker parses with its own parser; the shared project
			// resolver is internally synchronized.
			for item := range workCh {
				fa, err := e.AnalyzeSource(ctx, item.path, item.src)
				resultCh <- workResult{item: item, fa: fa, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: serial commit ----
	var errs []error
	for res := range resultCh {
		if res.err != nil {
			summary.Failures++
			errs = append(errs, fmt.Errorf("analyze %s: %w", res.item.path, res.err))
			continue
		}
		summary.Files++
		summary.Exports += len(res.fa.Exports)
		summary.Gaps += len(res.fa.Gaps)
		if e.store == nil {
			continue
		}
		if err := e.store.SaveAnalysis(res.item.path, res.item.hash, exportRows(res.fa), gapRows(res.fa.Gaps)); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
		}
	}
	if len(errs) > 0 {
		return summary, fmt.Errorf("understory: parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return summary, nil
}

// prepareFile does Phase A work for one file: language check, read, hash
// check. skip=true means the file is not analyzable; a returned item with
// nil src means the stored analysis is current.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	if _, ok := parse.LanguageForFile(path); !ok {
		return workItem{}, true, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(src))

	if e.store != nil {
		stored, ok, err := e.store.FileHash(path)
		if err != nil {
			return workItem{}, false, err
		}
		if ok && stored == hash {
			return workItem{path: path, hash: hash}, false, nil
		}
	}
	return workItem{path: path, hash: hash, src: src}, false, nil
}
