// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package host

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// FOCUS WATCHER
// =============================================================================

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 300 * time.Millisecond

// DefaultIgnorePatterns are directory and file globs never reported.
var DefaultIgnorePatterns = []string{
	".git", ".svn", ".hg",
	"node_modules", "__pycache__", ".venv", "venv",
	"vendor", "target", "dist", "build",
	".idea", ".vscode", ".vs",
	"*.exe", "*.dll", "*.so", "*.dylib",
	".tmp-*", "*.swp", "*~",
}

// WatchOptions configures a FocusWatcher. Zero values use defaults.
type WatchOptions struct {
	Debounce       time.Duration
	MaxFileSize    int64
	IgnorePatterns []string
}

// FocusWatcher reports the most recently written source file under a
// workspace root as the focused document. It stands in for an editor's
// active-document event when the assistant runs beside a plain editor.
type FocusWatcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	maxSize  int64
	ignore   []string
	onFocus  func(Document)

	mu      sync.Mutex
	pending map[string]time.Time
	last    Document
	hasLast bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFocusWatcher creates a watcher over root. onFocus runs on the
// watcher's goroutine for every debounced change.
func NewFocusWatcher(root string, opts WatchOptions, onFocus func(Document)) (*FocusWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root is not a directory: %s", abs)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.IgnorePatterns == nil {
		opts.IgnorePatterns = DefaultIgnorePatterns
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FocusWatcher{
		root:     abs,
		watcher:  watcher,
		debounce: opts.Debounce,
		maxSize:  opts.MaxFileSize,
		ignore:   opts.IgnorePatterns,
		onFocus:  onFocus,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Root returns the absolute workspace root.
func (fw *FocusWatcher) Root() string {
	return fw.root
}

// Start registers the directory tree and begins processing events.
func (fw *FocusWatcher) Start() error {
	if err := fw.addRecursive(fw.root); err != nil {
		return err
	}

	fw.wg.Add(2)
	go fw.processEvents()
	go fw.processPending()
	return nil
}

// Close stops the watcher and waits for its goroutines.
func (fw *FocusWatcher) Close() error {
	fw.cancel()
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}

// Current returns the last reported document.
func (fw *FocusWatcher) Current() (Document, bool) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.last, fw.hasLast
}

func (fw *FocusWatcher) shouldIgnore(name string) bool {
	for _, pattern := range fw.ignore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// addRecursive watches dir and every non-ignored subdirectory.
func (fw *FocusWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != fw.root && fw.shouldIgnore(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			log.Printf("focus watcher: cannot watch %s: %v", path, err)
		}
		return nil
	})
}

func (fw *FocusWatcher) processEvents() {
	defer fw.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("focus watcher: event loop panic: %v", r)
		}
	}()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if event.Has(fsnotify.Create) && !fw.shouldIgnore(info.Name()) {
					_ = fw.addRecursive(event.Name)
				}
				continue
			}
			fw.handleFileChange(event.Name)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("focus watcher: %v", err)
		}
	}
}

// handleFileChange queues path if it is a tracked source file.
func (fw *FocusWatcher) handleFileChange(path string) {
	if fw.shouldIgnore(filepath.Base(path)) || LanguageFor(path) == "" {
		return
	}
	fw.mu.Lock()
	fw.pending[path] = time.Now()
	fw.mu.Unlock()
}

// processPending emits settled changes. When several files settle in the
// same tick only the most recent one is reported, since only one document
// can hold focus.
func (fw *FocusWatcher) processPending() {
	defer fw.wg.Done()

	tick := fw.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			var newest string
			var newestAt time.Time

			fw.mu.Lock()
			for path, changed := range fw.pending {
				if now.Sub(changed) < fw.debounce {
					continue
				}
				if newest == "" || changed.After(newestAt) {
					newest, newestAt = path, changed
				}
				delete(fw.pending, path)
			}
			fw.mu.Unlock()

			if newest != "" {
				fw.emit(newest)
			}
		}
	}
}

func (fw *FocusWatcher) emit(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if fw.maxSize > 0 && info.Size() > fw.maxSize {
		log.Printf("focus watcher: skipping %s (%d bytes over limit)", path, info.Size()-fw.maxSize)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	doc := Document{Path: path, Language: LanguageFor(path), Text: string(data)}

	fw.mu.Lock()
	fw.last, fw.hasLast = doc, true
	fw.mu.Unlock()

	if fw.onFocus != nil {
		fw.onFocus(doc)
	}
}
