package pathconf

import (
	"github.com/fsnotify/fsnotify"
)

// Watcher calls OnChange whenever a path-set or profile-set file changes on
// disk, so the callback can re-parse it, the way original_source/'s module-alsa-card.c reconfigure path
// reacts to udev/config changes. fsnotify is already a transitive
// dependency of viper's own WatchConfig; this just drives it directly so
// the reload callback can re-probe against a live mixer.Backend instead of
// viper's own (path-set-unaware) config-changed hook.
type Watcher struct {
	w        *fsnotify.Watcher
	done     chan struct{}
	OnChange func(file string)
}

// NewWatcher starts watching file for writes, creates and renames (the
// events an editor or package manager produces when replacing a config
// file).
func NewWatcher(file string, onChange func(file string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(file); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{w: fw, done: make(chan struct{}), OnChange: onChange}
	go w.run(file)
	return w, nil
}

func (w *Watcher) run(file string) {
	defer close(w.done)
	for event := range w.w.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
			continue
		}
		if w.OnChange != nil {
			w.OnChange(file)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	return err
}
