/*
DESCRIPTION
  watch.go provides the watch mode of hoof, in which clips added to a
  directory are processed once they stop changing.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/pipeline"
	"github.com/ausocean/utils/logging"
)

// Time a clip must go unmodified before it is processed.
const settleTime = 2 * time.Second

// watch processes clips added to dir, writing a CSV per clip to outDir,
// until interrupted.
func watch(p *pipeline.Pipeline, dir, outDir string, l logging.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}
	defer w.Close()

	err = w.Add(dir)
	if err != nil {
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frames := p.Config().Input == config.InputFrames
	d := newDebouncer(settleTime)
	defer d.stop()

	notify(l, daemon.SdNotifyReady)
	l.Info(pkg+"watching", "dir", dir)
	for {
		select {
		case <-ctx.Done():
			notify(l, daemon.SdNotifyStopping)
			l.Info(pkg+"stopping watch")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			// Frame clips are directories; watch them so that frames written
			// into them delay processing.
			if frames && ev.Has(fsnotify.Create) && isDir(ev.Name) {
				err := w.Add(ev.Name)
				if err != nil {
					l.Warning(pkg+"could not watch clip", "clip", ev.Name, "error", err.Error())
				}
			}
			clip := clipOf(dir, ev.Name, frames)
			if clip != "" {
				d.touch(clip)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warning(pkg+"watch error", "error", err.Error())

		case clip := <-d.ready:
			if frames {
				w.Remove(clip)
			}
			dst := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(clip), filepath.Ext(clip))+".csv")
			err := extractTo(p, clip, dst)
			if err != nil {
				l.Error(pkg+"could not process clip", "clip", clip, "error", err.Error())
				continue
			}
			l.Info(pkg+"processed clip", "clip", clip, "output", dst)
		}
	}
}

// clipOf returns the clip in dir that a change to name belongs to, or ""
// if the change is not to a clip.
func clipOf(dir, name string, frames bool) string {
	rel, err := filepath.Rel(dir, name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(rel, string(filepath.Separator))
	switch {
	case frames:
		return filepath.Join(dir, parts[0])
	case len(parts) == 1 && pipeline.IsVideo(name):
		return name
	}
	return ""
}

func extractTo(p *pipeline.Pipeline, clip, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("could not create output: %w", err)
	}
	_, err = extract(p, clip, f, "")
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// notify sends state to systemd if running as a notify service.
func notify(l logging.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		l.Warning(pkg+"could not notify systemd", "state", state, "error", err.Error())
		return
	}
	if sent {
		l.Debug(pkg+"notified systemd", "state", state)
	}
}

// debouncer delivers a path on ready once it has not been touched for the
// settle time.
type debouncer struct {
	settle  time.Duration
	gen     map[string]int
	touches chan string
	expired chan expiry
	ready   chan string
	done    chan struct{}
}

type expiry struct {
	path string
	gen  int
}

func newDebouncer(settle time.Duration) *debouncer {
	d := &debouncer{
		settle:  settle,
		gen:     make(map[string]int),
		touches: make(chan string),
		expired: make(chan expiry),
		ready:   make(chan string),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// touch restarts the settle period of path.
func (d *debouncer) touch(path string) {
	select {
	case d.touches <- path:
	case <-d.done:
	}
}

func (d *debouncer) stop() { close(d.done) }

// run owns the generation map. Only the expiry of the latest touch of a
// path makes it ready. Generations are never reset.
func (d *debouncer) run() {
	var pending []string
	for {
		var out chan string
		var next string
		if len(pending) != 0 {
			out, next = d.ready, pending[0]
		}
		select {
		case <-d.done:
			return
		case out <- next:
			pending = pending[1:]
		case path := <-d.touches:
			d.gen[path]++
			e := expiry{path: path, gen: d.gen[path]}
			time.AfterFunc(d.settle, func() {
				select {
				case d.expired <- e:
				case <-d.done:
				}
			})
		case e := <-d.expired:
			if d.gen[e.path] != e.gen {
				continue
			}
			pending = append(pending, e.path)
		}
	}
}
