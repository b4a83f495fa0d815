// Package catalog maps a subscription pack week onto the message file the IVR plays.
// The catalog lives in a YAML file and can be hot-reloaded while the service runs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ErrMessageNotFound is returned when no message file is configured for a pack week.
var ErrMessageNotFound = errors.New("no message file for pack week")

type catalogFile struct {
	Packs []packEntry `yaml:"packs"`
}

type packEntry struct {
	Name  string      `yaml:"name"`
	Weeks []weekEntry `yaml:"weeks"`
}

type weekEntry struct {
	Week            int    `yaml:"week"`
	MessageFileName string `yaml:"messageFileName"`
}

type index map[string]map[int]string

// Catalog is a concurrency-safe pack/week lookup.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	packs index
}

// Load reads and validates the catalog at path.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		path:   filepath.Clean(path),
		logger: logger.With("component", "content_catalog"),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// MessageFile returns the message file configured for pack at week.
func (c *Catalog) MessageFile(pack string, week int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if name, ok := c.packs[pack][week]; ok {
		return name, nil
	}
	return "", fmt.Errorf("pack %q week %d: %w", pack, week, ErrMessageNotFound)
}

// Len returns the number of configured pack weeks.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, weeks := range c.packs {
		n += len(weeks)
	}
	return n
}

// Reload re-reads the file. On error the previously loaded catalog stays in effect.
func (c *Catalog) Reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read content catalog: %w", err)
	}
	idx, err := parse(raw)
	if err != nil {
		return fmt.Errorf("parse content catalog %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.packs = idx
	c.mu.Unlock()
	return nil
}

func parse(raw []byte) (index, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}

	idx := make(index, len(f.Packs))
	for _, p := range f.Packs {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, errors.New("pack name is required")
		}
		if _, dup := idx[name]; dup {
			return nil, fmt.Errorf("pack %q is defined twice", name)
		}
		weeks := make(map[int]string, len(p.Weeks))
		for _, w := range p.Weeks {
			if w.Week < 1 {
				return nil, fmt.Errorf("pack %q: week must be >= 1, got %d", name, w.Week)
			}
			file := strings.TrimSpace(w.MessageFileName)
			if file == "" {
				return nil, fmt.Errorf("pack %q week %d: messageFileName is required", name, w.Week)
			}
			if _, dup := weeks[w.Week]; dup {
				return nil, fmt.Errorf("pack %q week %d is defined twice", name, w.Week)
			}
			weeks[w.Week] = file
		}
		idx[name] = weeks
	}
	return idx, nil
}

// Watch reloads the catalog whenever its file changes, coalescing bursts of events
// within debounce. It blocks until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			c.logger.Warn("close catalog watcher", "error", closeErr)
		}
	}()

	// Watch the directory: editors and config-map mounts replace the file rather than write it.
	if addErr := watcher.Add(filepath.Dir(c.path)); addErr != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(c.path), addErr)
	}
	c.logger.InfoContext(ctx, "content catalog watcher started", "path", c.path, "debounce_ms", debounce.Milliseconds())

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("catalog watcher events channel closed")
			}
			if filepath.Clean(event.Name) != c.path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}

			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if reloadErr := c.Reload(); reloadErr != nil {
					c.logger.Error("content catalog reload failed; keeping previous catalog", "error", reloadErr)
					return
				}
				c.logger.Info("content catalog reloaded", "entries", c.Len())
			})
			timerMu.Unlock()

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("catalog watcher errors channel closed")
			}
			c.logger.Error("content catalog watcher error", "error", watchErr)
		}
	}
}
