// Package discover finds Python source files under a directory tree.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/docwalker/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the walk root
	Language string
}

// Options controls which files are returned.
type Options struct {
	// SkipInitPy drops package initializer files (__init__.py).
	SkipInitPy bool
	// RespectIgnore skips hidden entries, well-known tool and virtualenv
	// directories, and paths excluded by git or .gitignore. Symlinked files
	// are skipped as well.
	RespectIgnore bool
	// SkipTests drops files that look like tests.
	SkipTests bool
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	".env":          {},
	"build":         {},
	"dist":          {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"egg-info":      {},
}

// Files discovers parseable source files under root, sorted by path.
func Files(root string, opts Options) ([]FileEntry, error) {
	var (
		gitFiles map[string]struct{}
		gi       *ignore.GitIgnore
	)
	if opts.RespectIgnore {
		gitFiles = gitLsFiles(root)
		if gitFiles == nil {
			gi = loadGitignore(root)
		}
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip unreadable entries below root
		}

		name := d.Name()

		if d.IsDir() {
			if path == root || !opts.RespectIgnore {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}
		if opts.SkipInitPy && name == lang.Languages[langName].InitFile {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if opts.RespectIgnore {
			if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
				return nil
			}
			if gitFiles != nil {
				if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
					return nil
				}
			} else if gi != nil && gi.MatchesPath(rel) {
				return nil
			}
		}

		if opts.SkipTests && IsTestFile(rel) {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

var testDirs = map[string]struct{}{
	"test":  {},
	"tests": {},
}

// IsTestFile reports whether a relative path looks like a Python test module:
// anything under a test/ or tests/ directory, test_*.py, *_test.py and
// conftest.py inside a test directory.
func IsTestFile(rel string) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}
	base := strings.TrimSuffix(parts[len(parts)-1], ".py")
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test")
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
