// Package ingest uploads documents dropped into a watched directory.
package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
	"github.com/sanjeevkumarraob/askyourdoc/internal/service"
	"github.com/sanjeevkumarraob/askyourdoc/internal/store"
)

// Allowed extensions for discovery (lowercase, without '.').
var defaultExts = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"doc":  {},
	"txt":  {},
}

// Uploader receives discovered files. Delete drops the document a changed
// file previously produced.
type Uploader interface {
	Upload(ctx context.Context, in service.UploadInput) (*store.Document, error)
	Delete(ctx context.Context, id string) error
}

// Config controls what is watched.
type Config struct {
	Root        string              // directory to watch (recursive)
	AllowedExts map[string]struct{} // defaults to pdf, docx, doc, txt
	InitialScan bool                // if true, ingest files already present
	Debounce    time.Duration       // coalesce rapid create/write bursts
	Exclude     []string            // directory trees under Root that are never ingested
}

// ingested records the document produced from a watched path.
type ingested struct {
	id  string
	sum [sha256.Size]byte
}

// Watcher feeds new and changed files under Root to an Uploader.
type Watcher struct {
	cfg      Config
	uploader Uploader
	logger   *zap.Logger
	done     chan struct{}

	exclude []string
	// Only touched by the loop goroutine.
	seen map[string]ingested
}

// NewWatcher creates a watcher; call Start to begin watching.
func NewWatcher(logger *zap.Logger, uploader Uploader, cfg Config) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = defaultExts
	}
	return &Watcher{
		cfg:      cfg,
		uploader: uploader,
		logger:   logger,
		done:     make(chan struct{}),
		seen:     make(map[string]ingested),
	}
}

// Start registers the directory tree and processes events in the background
// until ctx is cancelled. Files found by the initial scan are queued before
// Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	if w.cfg.Root == "" {
		return errors.New("no root provided")
	}
	w.exclude = w.exclude[:0]
	for _, dir := range w.cfg.Exclude {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving excluded directory %s: %w", dir, err)
		}
		w.exclude = append(w.exclude, abs)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	pending := map[string]struct{}{}
	err = filepath.WalkDir(w.cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if w.excluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		if w.cfg.InitialScan && w.allowed(path) {
			pending[path] = struct{}{}
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("watching %s: %w", w.cfg.Root, err)
	}

	w.logger.Info("watching directory",
		zap.String("root", w.cfg.Root),
		zap.Strings("exclude", w.exclude),
		zap.Int("initial_files", len(pending)))

	go w.loop(ctx, fw, pending)
	return nil
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, pending map[string]struct{}) {
	defer close(w.done)
	defer func() {
		if err := fw.Close(); err != nil {
			w.logger.Warn("closing watcher", zap.Error(err))
		}
	}()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.cfg.Debounce)
		} else {
			timer.Reset(w.cfg.Debounce)
		}
		fire = timer.C
	}
	if len(pending) > 0 {
		arm()
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case e, ok := <-fw.Events:
			if !ok {
				return
			}
			if w.excluded(e.Name) {
				continue
			}
			if e.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
					if err := fw.Add(e.Name); err != nil {
						w.logger.Warn("failed to watch new directory", zap.String("path", e.Name), zap.Error(err))
					}
					continue
				}
			}
			if w.allowed(e.Name) && e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				pending[e.Name] = struct{}{}
				arm()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			for path := range pending {
				if ctx.Err() != nil {
					return
				}
				delete(pending, path)
				w.ingest(ctx, path)
			}
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Renamed away or deleted before the debounce fired.
		w.logger.Debug("skipping unreadable file", zap.String("path", path), zap.Error(err))
		return
	}

	sum := sha256.Sum256(data)
	prev, known := w.seen[path]
	if known && prev.sum == sum {
		return
	}

	doc, err := w.uploader.Upload(ctx, service.UploadInput{
		Filename:  filepath.Base(path),
		MediaType: document.MediaTypeForExtension(path),
		Data:      data,
	})
	if err != nil {
		w.logger.Warn("ingest failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.seen[path] = ingested{id: doc.ID, sum: sum}

	// The new version replaces the document made from the old contents.
	if known {
		if err := w.uploader.Delete(ctx, prev.id); err != nil && !service.IsNotFound(err) {
			w.logger.Warn("failed to remove superseded document",
				zap.String("path", path),
				zap.String("document_id", prev.id),
				zap.Error(err))
		}
	}
	w.logger.Info("ingested file",
		zap.String("path", path),
		zap.String("document_id", doc.ID),
		zap.Bool("replaced", known))
}

// excluded reports whether path lies in one of the excluded trees.
func (w *Watcher) excluded(path string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.exclude {
		rel, err := filepath.Rel(dir, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) allowed(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := w.cfg.AllowedExts[ext]
	return ok
}
