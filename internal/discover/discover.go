// Package discover enumerates the files a run will format.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"srcfmt/internal/task"
)

// Options configures a discovery pass.
type Options struct {
	// Base is the directory roots are resolved against; "" means cwd.
	Base             string
	Roots            []string
	Extensions       map[string]struct{}
	ShaderExtensions map[string]struct{}
}

// Error reports a root or directory that exists but could not be traversed.
// A partial listing would silently skip files, so the whole run stops.
type Error struct {
	Root string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("discover: cannot read %s (root %s): %v", e.Path, e.Root, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Discover walks every root and returns one task per matching regular file.
// Missing roots contribute nothing. Overlapping roots yield duplicate tasks.
func Discover(ctx context.Context, opts Options) ([]task.FileTask, error) {
	var tasks []task.FileTask
	for _, root := range opts.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := walkRoot(ctx, opts, root)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, found...)
	}
	return tasks, nil
}

func walkRoot(ctx context.Context, opts Options, root string) ([]task.FileTask, error) {
	dir := root
	if opts.Base != "" && !filepath.IsAbs(root) {
		dir = filepath.Join(opts.Base, root)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Root: root, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, nil
	}

	w := &walker{ctx: ctx, opts: opts, root: root, visited: map[string]bool{}}
	if err := w.walk(dir); err != nil {
		return nil, err
	}
	files := w.files

	sort.Strings(files)
	tasks := make([]task.FileTask, len(files))
	for i, path := range files {
		tasks[i] = task.NewFileTask(path, opts.ShaderExtensions)
	}
	return tasks, nil
}

// walker collects matching files below one root. Symlinks are followed;
// visited holds resolved directories so a link cycle is walked once.
type walker struct {
	ctx     context.Context
	opts    Options
	root    string
	visited map[string]bool
	files   []string
}

func (w *walker) walk(dir string) error {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if w.visited[real] {
			return nil
		}
		w.visited[real] = true
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &Error{Root: w.root, Path: path, Err: err}
		}
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if path != dir && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		mode := d.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				// Dangling link.
				return nil
			}
			if info.IsDir() {
				return w.walk(path)
			}
			mode = info.Mode().Type()
		}
		if !mode.IsRegular() {
			return nil
		}
		if _, ok := w.opts.Extensions[task.Ext(d.Name())]; ok {
			w.files = append(w.files, path)
		}
		return nil
	})
}

// hidden mirrors glob, whose wildcards never match names starting with a dot.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
