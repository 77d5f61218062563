// Package blobcache materialises stored binaries (avatars, headers, media) as
// files that the HTTP layer can serve by URL.
//
// Display URLs are derived data: they are regenerated from the stored bytes on
// demand and never persisted. The cache is owned by the presentation layer and
// has an explicit teardown.
package blobcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"
)

// DefaultURLPrefix is where the HTTP layer mounts the cache directory.
const DefaultURLPrefix = "/blobs/"

// Loader produces the bytes for a key on a cache miss.
type Loader func() ([]byte, error)

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
	"video/mp4":     ".mp4",
	"video/webm":    ".webm",
	"audio/mpeg":    ".mp3",
	"audio/ogg":     ".ogg",
}

// Cache maps keys to files under one directory. Keys are namespaced by the
// caller, typically "<account id>/<kind>/<id>", so Invalidate can drop every
// entry of an account by prefix.
type Cache struct {
	dir       string
	urlPrefix string
	group     singleflight.Group

	mu      sync.Mutex
	entries map[string]string // key -> file name
}

// New creates a cache at the specified directory.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob cache dir: %w", err)
	}
	return &Cache{
		dir:       dir,
		urlPrefix: DefaultURLPrefix,
		entries:   make(map[string]string),
	}, nil
}

// URL returns the display URL for key, writing the loader's bytes on a miss.
// Concurrent calls for the same key share one load.
func (c *Cache) URL(key, mime string, load Loader) (string, error) {
	if name, ok := c.lookup(key); ok {
		return c.urlPrefix + name, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if name, ok := c.lookup(key); ok {
			return name, nil
		}
		data, err := load()
		if err != nil {
			return "", err
		}
		name := fileName(key, mime)
		if err := c.write(name, data); err != nil {
			return "", err
		}
		c.mu.Lock()
		c.entries[key] = name
		c.mu.Unlock()
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return c.urlPrefix + v.(string), nil
}

// Thumbnail is URL for a PNG copy of the loaded image scaled to fit within
// maxDim on both sides. Images already small enough are re-encoded unscaled.
func (c *Cache) Thumbnail(key string, maxDim int, load Loader) (string, error) {
	thumbKey := fmt.Sprintf("%s@%d", key, maxDim)
	return c.URL(thumbKey, "image/png", func() ([]byte, error) {
		data, err := load()
		if err != nil {
			return nil, err
		}
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		var scaled image.Image = img
		if b := img.Bounds(); maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
			scaled = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode thumbnail: %w", err)
		}
		return buf.Bytes(), nil
	})
}

// Invalidate removes every entry whose key starts with prefix.
func (c *Cache) Invalidate(prefix string) error {
	c.mu.Lock()
	var names []string
	for key, name := range c.entries {
		if strings.HasPrefix(key, prefix) {
			names = append(names, name)
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	for _, name := range names {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close removes every materialised file. The directory itself stays.
func (c *Cache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(c.dir, "blob_*"))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Len is the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) (string, bool) {
	c.mu.Lock()
	name, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return "", false
	}
	if _, err := os.Stat(filepath.Join(c.dir, name)); err != nil {
		return "", false
	}
	return name, true
}

// write stores data under name through a temp file and rename.
func (c *Cache) write(name string, data []byte) error {
	tmpFile, err := os.CreateTemp(c.dir, "tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(c.dir, name))
}

// fileName derives a stable name from the key so a restarted process
// overwrites rather than duplicates.
func fileName(key, mime string) string {
	hash := sha256.Sum256([]byte(key))
	ext, ok := extensions[mime]
	if !ok {
		ext = ".bin"
	}
	return "blob_" + hex.EncodeToString(hash[:12]) + ext
}
