package localcache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// unsafeKeyChars matches characters that may not appear in a cache file name.
var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// Cache is a device-local persistent key-value store. Each key is one JSON
// file in the cache directory, so values survive process restarts, and an
// fsnotify watcher notifies subscribers when another process (or this one)
// writes a key. Writes go through a temp file + rename so readers never see
// a partial value.
type Cache struct {
	dir     string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	subs   map[int]func(key string)
	nextID int
	closed bool
}

// Open creates (if needed) the cache directory and starts the change watcher.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create cache watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch cache dir: %w", err)
	}

	c := &Cache{
		dir:     dir,
		logger:  logger,
		watcher: watcher,
		subs:    make(map[int]func(key string)),
	}

	go c.watchLoop()

	return c, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Get reads the value stored under key into v. The second return is false
// when the key is absent.
func (c *Cache) Get(key string, v any) (bool, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read cache key %q: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshal cache key %q: %w", key, err)
	}
	return true, nil
}

// Set stores v under key atomically.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache key %q: %w", key, err)
	}

	target := c.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache key %q: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("commit cache key %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (c *Cache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cache key %q: %w", key, err)
	}
	return nil
}

// Append appends v to the JSON array stored under key, discarding the oldest
// entries beyond maxLen. Used for the capped analytics event logs.
func (c *Cache) Append(key string, v any, maxLen int) error {
	var entries []json.RawMessage
	if _, err := c.Get(key, &entries); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache entry for %q: %w", key, err)
	}

	entries = append(entries, data)
	if maxLen > 0 && len(entries) > maxLen {
		entries = entries[len(entries)-maxLen:]
	}

	return c.Set(key, entries)
}

// Subscribe registers a change handler invoked with the key of every write
// or delete observed in the cache directory. The returned function removes
// the subscription.
func (c *Cache) Subscribe(fn func(key string)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Close stops the watcher. Pending notifications may be dropped.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.watcher.Close()
}

func (c *Cache) watchLoop() {
	for {
		select {
		case evt, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(evt.Name)
			if !strings.HasSuffix(name, ".json") {
				continue // temp files
			}
			key := strings.TrimSuffix(name, ".json")
			c.notify(key)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("cache watcher error", slog.String("error", err.Error()))
		}
	}
}

func (c *Cache) notify(key string) {
	c.mu.Lock()
	handlers := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		handlers = append(handlers, fn)
	}
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(key)
	}
}
