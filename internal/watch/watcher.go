// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not set.
const DefaultDebounce = 500 * time.Millisecond

// defaultIgnores are never watched: VCS metadata, interpreter caches, editor
// swap files and OS metadata.
var defaultIgnores = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/*.pyc",
	"**/.venv/**",
	"**/.mypy_cache/**",
	"**/.pytest_cache/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

var (
	// ErrAlreadyStarted is returned by Run when the watcher already ran.
	ErrAlreadyStarted = errors.New("watch: Run called more than once")
	// ErrWatchLimit is returned when the operating system cannot watch more
	// directories or open more handles. The watcher cannot recover from it.
	ErrWatchLimit = errors.New("watch: operating system watch limit reached")
)

type (
	// LimitError reports an exhausted watch resource together with the
	// remediation for the current platform.
	LimitError struct {
		Err  error
		Hint string
	}

	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the directories watched recursively, typically the
		// project and its local dependencies. At least one is required.
		Roots []string

		// Patterns select which files trigger a run (doublestar globs matched
		// against the path relative to its root). Empty means every file.
		Patterns []string

		// Ignore are extra doublestar globs, merged with the built-in ignores.
		Ignore []string

		// SkipDirs are absolute directories that are never watched, such as
		// the staging tree and the output directory.
		SkipDirs []string

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero or negative values fall back to DefaultDebounce.
		Debounce time.Duration

		// OnChange receives the changed paths, each prefixed with the base
		// name of its root ("app/app/main.py"). A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives watcher diagnostics. nil means log.Default().
		Logger *log.Logger
	}

	// Watcher monitors the roots and fires a debounced callback. Callbacks
	// never overlap: a batch that arrives during a run waits for it.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []string
		skipDirs []string
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory under the roots.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("watch: no directories to watch")
	}
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	roots, err := absAll(cfg.Roots)
	if err != nil {
		return nil, err
	}
	skipDirs, err := absAll(cfg.SkipDirs)
	if err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		roots:    roots,
		skipDirs: skipDirs,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		logger:   logger,
		debounce: debounce,
	}

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				logger.Warn("Failed to close watcher", "err", closeErr)
			}
			return nil, err
		}
	}
	return w, nil
}

// Roots returns the absolute directories being watched.
func (w *Watcher) Roots() []string {
	return slices.Clone(w.roots)
}

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			// Retry once the current run had time to finish.
			w.logger.Debug("Deploy still running, deferring changes")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.logger.Info("Detected changes", "files", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("Run after change failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("Failed to close watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			name, ok := w.relevant(evt.Name)
			if !ok {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if hint, ok := limitHint(err); ok {
				return &LimitError{Err: err, Hint: hint}
			}
			w.logger.Warn("Watcher error", "err", err)
		}
	}
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %v (%s)", ErrWatchLimit, e.Err, e.Hint)
}

// Unwrap returns both ErrWatchLimit and the underlying errno.
func (e *LimitError) Unwrap() []error {
	return []error{ErrWatchLimit, e.Err}
}

// relevant maps an event path to its reported name, or false when the path
// is skipped, ignored or not selected by the patterns.
func (w *Watcher) relevant(path string) (string, bool) {
	if w.skipped(path) {
		return "", false
	}
	root, rel, ok := w.locate(path)
	if !ok || w.isIgnored(rel) || !w.matchesPatterns(rel) {
		return "", false
	}
	return filepath.ToSlash(filepath.Join(filepath.Base(root), rel)), true
}

// locate finds the root holding path. Nested roots resolve to the deepest.
func (w *Watcher) locate(path string) (root, rel string, ok bool) {
	for _, r := range w.roots {
		if !within(r, path) || len(r) <= len(root) {
			continue
		}
		rr, err := filepath.Rel(r, path)
		if err != nil {
			continue
		}
		root, rel, ok = r, rr, true
	}
	return root, rel, ok
}

func (w *Watcher) addTree(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Skipping inaccessible path", "path", path, "err", err)
			return nil //nolint:nilerr // unreadable directories are not watched
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(root, path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if hint, ok := limitHint(err); ok {
				return &LimitError{Err: err, Hint: hint}
			}
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %s: %w", root, walkErr)
	}
	return nil
}

func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	root, _, ok := w.locate(path)
	if !ok || w.skipDir(root, path) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("Failed to watch new directory", "path", path, "err", err)
	}
}

func (w *Watcher) skipDir(root, path string) bool {
	if path == root {
		return false
	}
	if w.skipped(path) {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	return w.isIgnored(rel) || w.isIgnored(rel+"/")
}

func (w *Watcher) skipped(path string) bool {
	for _, dir := range w.skipDirs {
		if within(dir, path) {
			return true
		}
	}
	return false
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matchesPatterns(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}

func absAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
