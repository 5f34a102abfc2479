// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// =============================================================================
// FILE TOKEN
// =============================================================================

// FileToken reads the token from a file. The contents are cached; Watch
// drops the cache whenever the file is written, replaced or removed, so a
// sign-in helper can rotate the token while the TUI is running.
type FileToken struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	cached string
	valid  bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

// NewFileToken creates a source for path. A nil logger is replaced by a no-op.
func NewFileToken(path string, logger *zap.Logger) *FileToken {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileToken{path: path, logger: logger}
}

// Path returns the watched file.
func (f *FileToken) Path() string { return f.path }

// Token implements TokenSource.
func (f *FileToken) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.valid {
		if f.cached == "" {
			return "", ErrNoToken
		}
		return f.cached, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("read token file: %w", err)
	}

	f.cached = strings.TrimSpace(string(data))
	f.valid = true
	if f.cached == "" {
		return "", ErrNoToken
	}
	return f.cached, nil
}

// Invalidate forces the next Token call to re-read the file.
func (f *FileToken) Invalidate() {
	f.mu.Lock()
	f.valid = false
	f.cached = ""
	f.mu.Unlock()
}

// Watch starts watching the token file's directory. It returns once the
// watch is installed; events are processed until ctx is done or Close is
// called. The directory is watched rather than the file so that atomic
// replacement (write temp, rename) is seen.
func (f *FileToken) Watch(ctx context.Context) error {
	f.mu.Lock()
	if f.watcher != nil {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	f.mu.Lock()
	f.watcher = watcher
	f.done = make(chan struct{})
	f.stopped = make(chan struct{})
	done, stopped := f.done, f.stopped
	f.mu.Unlock()

	go f.processEvents(ctx, watcher, done, stopped)
	return nil
}

// Close stops the watcher and waits for its goroutine to exit. Cancelling
// the context passed to Watch has the same effect.
func (f *FileToken) Close() error {
	f.mu.Lock()
	watcher, done, stopped := f.watcher, f.done, f.stopped
	f.watcher = nil
	f.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(done)
	<-stopped
	return nil
}

func (f *FileToken) processEvents(ctx context.Context, watcher *fsnotify.Watcher, done, stopped chan struct{}) {
	defer close(stopped)
	defer watcher.Close()

	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				f.Invalidate()
				f.logger.Debug("token file changed", zap.String("path", f.path), zap.String("op", event.Op.String()))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("token file watcher error", zap.Error(err))
		}
	}
}
