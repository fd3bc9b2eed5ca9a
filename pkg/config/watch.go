package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/telship/pkg/log"
)

// LoadFunc reads the settings stored at path.
type LoadFunc func(path string) (Settings, error)

// Watch monitors path and stores freshly loaded settings into live each time
// the file is written or recreated. It blocks until ctx is cancelled.
//
// A reload that fails to load or validate is logged and the previous settings
// stay active.
func Watch(ctx context.Context, path string, live *Live, load LoadFunc, logger log.Logger) error {
	logger = log.OrNoop(logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger.Info("watching config for changes", log.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save atomically via rename, which shows up as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			s, err := load(path)
			if err == nil {
				err = s.Validate()
			}
			if err != nil {
				logger.Error("config reload failed, keeping previous settings",
					log.Code(log.ConfigReloadFailed),
					log.String("path", path),
					log.Err(err))
				continue
			}

			live.Store(s)
			logger.Info("config reloaded", log.String("path", path))

			// The inode may have been replaced by an atomic save.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", log.Err(err))
		}
	}
}
