// Package walker discovers indexable source files under a project root.
package walker

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFile is the per-project file listing extra exclude patterns.
const IgnoreFile = ".coderagignore"

// FileInfo holds metadata about a discovered source file.
type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
}

// maxFileSize is the largest file we'll consider (1 MB).
const maxFileSize = 1 << 20

// DefaultIgnores are always excluded.
var DefaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".idea",
	".vscode",
	".coderag",
	"dist",
	"build",
	"coverage",
	"**/*.d.ts",
}

// Options controls which files Walk emits.
type Options struct {
	// Extensions lists the allowed file extensions, without dot.
	Extensions map[string]bool
	// Exclude adds patterns to DefaultIgnores and the project's ignore file.
	Exclude []string
	Logger  *slog.Logger
}

// Walk traverses the directory tree rooted at root and sends discovered
// source files on the returned channel in lexical order. Directories and
// files matching an ignore pattern are skipped, as are symlinks, empty files
// and files over 1 MB. Walking stops early when ctx is cancelled.
func Walk(ctx context.Context, root string, opts Options) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		ignores := append(append([]string{}, DefaultIgnores...), LoadIgnorePatterns(absRoot)...)
		ignores = append(ignores, opts.Exclude...)

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() && path != absRoot {
					return filepath.SkipDir
				}
				return nil
			}
			if path == absRoot {
				return nil
			}

			rel, _ := filepath.Rel(absRoot, path)
			rel = filepath.ToSlash(rel)
			if Matches(d.Name(), rel, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			// Skip symlinks.
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			ext := strings.TrimPrefix(filepath.Ext(path), ".")
			if !opts.Extensions[ext] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Size() > maxFileSize || info.Size() == 0 {
				return nil
			}

			select {
			case files <- FileInfo{Path: path, RelPath: rel, Size: info.Size()}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// LoadIgnorePatterns reads the ignore file from the project root. A missing
// file yields no patterns.
func LoadIgnorePatterns(root string) []string {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	return patterns
}

// Matches reports whether an entry's base name or slash-separated path
// relative to the root matches any pattern. Patterns support doublestar
// globs; a plain pattern also matches as a path prefix.
func Matches(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p || relPath == p {
			return true
		}
		if strings.HasPrefix(relPath, p+"/") {
			return true
		}
		if matched, err := doublestar.Match(p, relPath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(p, name); err == nil && matched {
			return true
		}
	}
	return false
}
