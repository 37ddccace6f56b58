// Package batch formats files on disk outside of an editor session, for the
// headless `format` command.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"bennypowers.dev/csscomb/internal/documents"
	"bennypowers.dev/csscomb/internal/format"
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/internal/syntax"
	"bennypowers.dev/csscomb/internal/uriutil"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// ErrNoFiles is returned when the given paths name no formattable file.
var ErrNoFiles = errors.New("no stylesheet or markup files found")

// Options for a batch run.
type Options struct {
	// Write rewrites changed files in place. Otherwise the formatted text
	// is returned on each Result.
	Write    bool
	Settings settings.Settings
	// Root is the workspace root used for config discovery.
	Root string
	// Jobs caps concurrent files; zero means GOMAXPROCS.
	Jobs int
}

// Result of formatting one file.
type Result struct {
	Path      string
	Formatted string
	Changed   bool
	// Skipped is set, with the reason, for files that have nothing to
	// format: unsupported languages and markup without <style> elements.
	Skipped     error
	Warnings    []error
	BlockErrors []error
	Err         error
}

// Failed reports whether the file could not be formatted completely.
func (r Result) Failed() bool {
	return r.Err != nil || len(r.BlockErrors) > 0
}

// FormatPaths formats every file named by paths. Directories are walked and
// arguments containing glob metacharacters are expanded with doublestar.
// Results are in path order.
func FormatPaths(ctx context.Context, f *format.Formatter, paths []string, opts Options) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := CollectFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = formatFile(gctx, f, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func formatFile(ctx context.Context, f *format.Formatter, path string, opts Options) Result {
	res := Result{Path: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		res.Err = err
		return res
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		res.Err = err
		return res
	}
	text := string(data)

	doc := documents.NewDocument(uriutil.PathToURI(abs), syntax.FromPath(abs), 0, text)
	out, err := f.Run(ctx, format.Request{
		Document:     doc,
		Root:         opts.Root,
		Settings:     opts.Settings,
		InsertSpaces: true,
		TabSize:      2,
	})
	if out != nil {
		res.Warnings = out.Warnings
		res.BlockErrors = out.BlockErrors()
	}
	switch {
	case errors.Is(err, format.ErrNoStyleBlocks), errors.Is(err, format.ErrUnsupportedSyntax):
		res.Skipped = err
		res.Formatted = text
		return res
	case err != nil:
		res.Err = err
		return res
	}

	formatted, err := documents.ApplyEdits(text, out.Edits())
	if err != nil {
		res.Err = fmt.Errorf("applying edits: %w", err)
		return res
	}
	res.Formatted = formatted
	res.Changed = formatted != text
	log.Debug("Formatted %s (changed: %t)", path, res.Changed)

	if opts.Write && res.Changed {
		mode := fs.FileMode(0o644)
		if info, statErr := os.Stat(abs); statErr == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(abs, []byte(formatted), mode.Perm()); err != nil {
			res.Err = err
		}
	}
	return res
}

// CollectFiles expands paths into a sorted, de-duplicated file list. Files
// named directly are kept whatever their extension; walked directories and
// globs only contribute files with a known language.
func CollectFiles(paths []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, arg := range paths {
		if strings.ContainsAny(arg, "*?[{") {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			for _, m := range matches {
				if syntax.FromPath(m) != "" {
					add(m)
				}
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if syntax.FromPath(path) != "" {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}
