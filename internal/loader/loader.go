// Package loader walks a directory and turns every qualifying Python file into
// a docstring summary document.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/phobologic/docwalker/internal/config"
	"github.com/phobologic/docwalker/internal/discover"
	"github.com/phobologic/docwalker/internal/extract"
	"github.com/phobologic/docwalker/internal/model"
)

// Options controls a walk. The zero value includes __init__.py files; use
// DefaultOptions for the documented load_data defaults.
type Options struct {
	Marker        string
	SkipInitPy    bool
	SkipTests     bool
	RespectIgnore bool
	// MaxFileSize skips larger files with a warning. Zero means no limit.
	MaxFileSize int64
	// FailOnMalformed aborts the walk on the first file that cannot be read
	// or parsed. Otherwise such files are logged and skipped.
	FailOnMalformed bool
	Workers         int
}

// DefaultOptions returns the defaults of a plain load: __init__.py files are
// skipped, malformed files are logged and skipped, and the default marker is
// used.
func DefaultOptions() Options {
	return Options{
		Marker:     extract.DefaultMarker,
		SkipInitPy: true,
	}
}

// OptionsFromConfig maps loaded configuration onto walk options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Marker:          cfg.Marker,
		SkipInitPy:      cfg.SkipInitPy,
		SkipTests:       cfg.SkipTests,
		RespectIgnore:   cfg.RespectIgnore,
		MaxFileSize:     cfg.MaxFileSize,
		FailOnMalformed: cfg.FailOnMalformed,
		Workers:         cfg.Workers,
	}
}

// Loader produces documents for a directory tree.
type Loader struct {
	opts     Options
	log      *slog.Logger
	readFile func(path string) ([]byte, error)
}

// New creates a Loader. A nil logger discards all output.
func New(opts Options, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Marker == "" {
		opts.Marker = extract.DefaultMarker
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{opts: opts, log: log, readFile: os.ReadFile}
}

// Files returns the source files a walk of codeDir would process, after the
// size filter.
func (l *Loader) Files(codeDir string) ([]discover.FileEntry, error) {
	info, err := os.Stat(codeDir)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", codeDir, ErrNotDirectory)
	}

	files, err := discover.Files(codeDir, discover.Options{
		SkipInitPy:    l.opts.SkipInitPy,
		RespectIgnore: l.opts.RespectIgnore,
		SkipTests:     l.opts.SkipTests,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	return l.filterBySize(codeDir, files), nil
}

// LoadData walks codeDir and returns one document per qualifying file, in path
// order. Files without a marked function contribute nothing. Under
// FailOnMalformed the returned error is a *FileError for the first failing
// file in path order.
func (l *Loader) LoadData(ctx context.Context, codeDir string) ([]model.Document, error) {
	files, err := l.Files(codeDir)
	if err != nil {
		return nil, err
	}
	docs, err := l.process(ctx, codeDir, files)
	if err != nil {
		return nil, err
	}
	l.log.Info("walk complete", "root", codeDir, "files", len(files), "documents", len(docs))
	return docs, nil
}

func (l *Loader) filterBySize(root string, files []discover.FileEntry) []discover.FileEntry {
	if l.opts.MaxFileSize <= 0 {
		return files
	}
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > l.opts.MaxFileSize {
			l.log.Warn("skipping large file", "path", f.Path, "size", fi.Size(), "limit", l.opts.MaxFileSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func (l *Loader) process(ctx context.Context, root string, files []discover.FileEntry) ([]model.Document, error) {
	type result struct {
		index int
		doc   model.Document
		ok    bool
		err   *FileError
	}

	if len(files) == 0 {
		return nil, nil
	}

	numWorkers := l.opts.Workers
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	// Under FailOnMalformed, indices after the earliest failure are not
	// worth processing; earlier ones still are, since they may fail too.
	var firstFailed atomic.Int64
	firstFailed.Store(math.MaxInt64)

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			synth := extract.NewSynthesizer(l.opts.Marker)
			synth.ReadFile = l.readFile

			for idx := range work {
				if ctx.Err() != nil || int64(idx) > firstFailed.Load() {
					continue
				}
				f := files[idx]
				absPath := filepath.Join(root, f.Path)

				doc, ok, err := synth.ParseModule(ctx, extract.ModuleName(f.Path), absPath)
				if err != nil {
					if ctx.Err() != nil {
						continue
					}
					fe := newFileError(f.Path, err)
					if l.opts.FailOnMalformed {
						storeMin(&firstFailed, int64(idx))
						results <- result{index: idx, err: fe}
						continue
					}
					l.log.Warn("failed to parse file, skipping", "path", absPath, "kind", fe.Kind, "error", err)
					continue
				}

				l.log.Debug("processed file", "path", f.Path, "document", ok)
				doc.Path = f.Path
				results <- result{index: idx, doc: doc, ok: ok}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in path order
	indexed := make([]result, len(files))
	var failed *result
	for r := range results {
		indexed[r.index] = r
		if r.err != nil && (failed == nil || r.index < failed.index) {
			failed = &indexed[r.index]
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failed != nil {
		return nil, failed.err
	}

	var docs []model.Document
	for _, r := range indexed {
		if r.ok {
			docs = append(docs, r.doc)
		}
	}
	return docs, nil
}

func storeMin(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n >= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
