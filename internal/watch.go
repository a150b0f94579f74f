package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnolang/lambsat/internal/types"
)

// SourceExt is the extension of program files.
const SourceExt = ".lam"

const watchDebounce = 100 * time.Millisecond

var errAlreadyWatching = errors.New("already watching")

// Watcher re-simplifies program files when they are written.
type Watcher struct {
	engine  *Engine
	dirs    []string
	report  func(*tt.Result, error)
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	mu         sync.Mutex
	isWatching bool
	done       chan struct{}
}

// NewWatcher returns a watcher over dirs that passes every result to
// report.
func NewWatcher(engine *Engine, dirs []string, logger *zap.Logger, report func(*tt.Result, error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		engine:  engine,
		dirs:    dirs,
		report:  report,
		logger:  logger,
		watcher: fw,
	}, nil
}

// Start registers every directory below the watched roots and begins
// processing events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isWatching {
		return errAlreadyWatching
	}

	for _, dir := range w.dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return w.watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	w.isWatching = true
	w.done = make(chan struct{})
	go w.watchLoop(ctx)
	return nil
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.isWatching {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.isWatching = false
	done := w.done
	w.mu.Unlock()

	err := w.watcher.Close()
	<-done
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleFileEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if filepath.Ext(event.Name) != SourceExt {
		return
	}

	// editors often write a file in several steps
	time.Sleep(watchDebounce)

	w.logger.Debug("File changed", zap.String("file", event.Name))
	res, err := w.engine.Run(ctx, event.Name)
	w.report(res, err)
}
