// Package container gives zip and tar+gzip archives one read interface.
//
// A zip archive is random access: entries are decompressed lazily, only when read.
// A tar+gzip archive is a stream: it is decompressed once, up front, and its entries
// are kept in memory. Callers see no difference between the two.
//
//	c, err := container.Open(data, "export.zip")
//	if err != nil {
//		// errors.Is(err, container.ErrInvalidArchive) for corrupt input
//	}
//	defer c.Close()
//
//	if e, ok := c.File("outbox.json"); ok {
//		text, _ := e.Text()
//	}
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when the file name has no known archive suffix.
	ErrUnsupportedFormat = errors.New("unsupported archive format, expected .zip, .tar.gz or .tgz")
	// ErrInvalidArchive is returned when the decompressor cannot parse the payload.
	ErrInvalidArchive = errors.New("invalid archive")
)

type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "tar.gz"
)

// Entry is a single file or directory inside a container.
// Reading a directory yields empty content.
type Entry interface {
	Name() string
	IsDir() bool
	Size() int64
	// Open returns a reader over the raw entry bytes.
	Open() (io.ReadCloser, error)
	// Bytes reads the whole entry.
	Bytes() ([]byte, error)
	// Text reads the whole entry as a string.
	Text() (string, error)
}

// Container is the uniform view over an archive.
type Container interface {
	Format() Format
	// File returns the entry at exactly path, if present.
	File(path string) (Entry, bool)
	// Find returns every entry whose path matches pattern, in archive order.
	Find(pattern *regexp.Regexp) []Entry
	// Entries returns every entry in archive order.
	Entries() []Entry
	Close() error
}

// DetectFormat picks the container format from the file name suffix.
// The payload is never sniffed.
func DetectFormat(fileName string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(fileName))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
}

// Open builds the container matching fileName's suffix over data.
func Open(data []byte, fileName string) (Container, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatZip:
		return openZip(data)
	case FormatTarGz:
		return openTarGz(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
}

// normalizePath strips leading "./" and "/" and any trailing slash so that
// lookups do not depend on how the archiver wrote names.
func normalizePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	for strings.HasPrefix(name, "./") {
		name = name[2:]
	}
	name = strings.TrimLeft(name, "/")
	return strings.TrimRight(name, "/")
}

// index keeps entries in archive order plus a path lookup shared by both formats.
type index struct {
	ordered []Entry
	byPath  map[string]Entry
}

func newIndex(capacity int) index {
	return index{
		ordered: make([]Entry, 0, capacity),
		byPath:  make(map[string]Entry, capacity),
	}
}

func (ix *index) add(e Entry) {
	if e.Name() == "" {
		return
	}
	if _, exists := ix.byPath[e.Name()]; !exists {
		ix.ordered = append(ix.ordered, e)
	} else {
		// A later duplicate replaces the earlier one in place.
		for i, existing := range ix.ordered {
			if existing.Name() == e.Name() {
				ix.ordered[i] = e
				break
			}
		}
	}
	ix.byPath[e.Name()] = e
}

func (ix *index) File(path string) (Entry, bool) {
	e, ok := ix.byPath[normalizePath(path)]
	return e, ok
}

func (ix *index) Find(pattern *regexp.Regexp) []Entry {
	var matches []Entry
	for _, e := range ix.ordered {
		if pattern.MatchString(e.Name()) {
			matches = append(matches, e)
		}
	}
	return matches
}

func (ix *index) Entries() []Entry {
	out := make([]Entry, len(ix.ordered))
	copy(out, ix.ordered)
	return out
}

func readAll(e Entry) ([]byte, error) {
	if e.IsDir() {
		return []byte{}, nil
	}
	rc, err := e.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", e.Name(), err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if size := e.Size(); size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
	}
	return buf.Bytes(), nil
}
