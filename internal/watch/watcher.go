// Package watch reports changes to the dataset file and the page templates.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change kinds passed to Callback.
const (
	KindDataset  = "dataset"
	KindTemplate = "template"
)

// Callback is called once per debounce window for every kind that changed.
// path is the dataset path, or the template path relative to its directory.
type Callback func(kind, path string)

// Options selects what to watch.
type Options struct {
	// DatasetPath is the CSV file. Its parent directory is watched so that
	// editors which replace the file on save are still seen.
	DatasetPath string
	// TemplateDir is watched recursively. Empty disables template watching.
	TemplateDir string
	// Debounce collapses bursts of events. Zero means 200ms.
	Debounce time.Duration
}

// Watch processes file system events until ctx is cancelled.
func Watch(ctx context.Context, opts Options, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	var datasetPath, templateDir string
	if opts.DatasetPath != "" {
		datasetPath, err = filepath.Abs(opts.DatasetPath)
		if err != nil {
			return err
		}
		if err := w.Add(filepath.Dir(datasetPath)); err != nil {
			logger.Warn("watcher: dataset directory not watched",
				slog.String("dir", filepath.Dir(datasetPath)),
				slog.String("error", err.Error()))
			datasetPath = ""
		}
	}
	if opts.TemplateDir != "" {
		templateDir, err = filepath.Abs(opts.TemplateDir)
		if err != nil {
			return err
		}
		if err := addDirsRecursive(w, templateDir); err != nil {
			return err
		}
	}

	logger.Info("watcher: started",
		slog.String("dataset", datasetPath),
		slog.String("templates", templateDir))

	var timer *time.Timer
	var timerCh <-chan time.Time
	var pendingDataset, pendingTemplate string

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			if pendingDataset != "" {
				logger.Debug("watcher: dataset changed", slog.String("path", pendingDataset))
				cb(KindDataset, pendingDataset)
				pendingDataset = ""
			}
			if pendingTemplate != "" {
				logger.Debug("watcher: template changed", slog.String("path", pendingTemplate))
				cb(KindTemplate, pendingTemplate)
				pendingTemplate = ""
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}

			switch {
			case datasetPath != "" && ev.Name == datasetPath:
				pendingDataset = datasetPath
				schedule()

			case templateDir != "" && isUnder(ev.Name, templateDir):
				if ev.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
						if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
							logger.Warn("watcher: add new dir failed",
								slog.String("path", ev.Name),
								slog.String("error", addErr.Error()))
						}
						continue
					}
				}
				rel, relErr := filepath.Rel(templateDir, ev.Name)
				if relErr != nil {
					continue
				}
				pendingTemplate = filepath.ToSlash(rel)
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func isUnder(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(os.PathSeparator))
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
