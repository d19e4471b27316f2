// Package watch reruns generation when Go files in a package directory
// change.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period required before a run starts. Editors
// often emit several events per save.
const DefaultDebounce = 200 * time.Millisecond

// Option configures Run.
type Option func(*options)

type options struct {
	debounce time.Duration
	ignore   map[string]bool
	logger   logrus.FieldLogger
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithIgnore skips events for the given paths, typically the generated
// output so writing it does not trigger another run.
func WithIgnore(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				o.ignore[abs] = true
			}
		}
	}
}

// WithLogger routes watcher logging to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Run calls fn after every burst of changes to .go files in dir until ctx is
// done. Errors returned by fn are logged and watching continues.
func Run(ctx context.Context, dir string, fn func(context.Context) error, opts ...Option) error {
	o := options{debounce: DefaultDebounce, ignore: map[string]bool{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		o.logger = logger
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}
	o.logger.WithField("dir", dir).Info("watching for changes")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !o.relevant(ev) {
				continue
			}
			o.logger.WithFields(logrus.Fields{"file": ev.Name, "op": ev.Op.String()}).Debug("change detected")
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			o.logger.WithError(err).Warn("watcher error")
		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				o.logger.WithError(err).Error("regeneration failed")
			}
		}
	}
}

func (o *options) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if filepath.Ext(base) != ".go" || strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return false
	}
	if abs, err := filepath.Abs(ev.Name); err == nil && o.ignore[abs] {
		return false
	}
	return true
}
