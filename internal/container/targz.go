package container

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

type tarGzContainer struct {
	index
}

// openTarGz decompresses the whole payload and splits the tar stream into
// in-memory entries.
func openTarGz(data []byte) (*tarGzContainer, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer gz.Close()

	c := &tarGzContainer{index: newIndex(64)}
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}

		name := normalizePath(header.Name)
		switch header.Typeflag {
		case tar.TypeDir:
			c.add(&memoryEntry{name: name, dir: true})
		case tar.TypeReg:
			body, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidArchive, name, err)
			}
			c.add(&memoryEntry{name: name, data: body})
		default:
			// links, devices and pax headers carry no archive content
		}
	}
	return c, nil
}

func (c *tarGzContainer) Format() Format {
	return FormatTarGz
}

func (c *tarGzContainer) Close() error {
	c.ordered = nil
	c.byPath = nil
	return nil
}

type memoryEntry struct {
	name string
	dir  bool
	data []byte
}

func (e *memoryEntry) Name() string {
	return e.name
}

func (e *memoryEntry) IsDir() bool {
	return e.dir
}

func (e *memoryEntry) Size() int64 {
	return int64(len(e.data))
}

func (e *memoryEntry) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(e.data)), nil
}

func (e *memoryEntry) Bytes() ([]byte, error) {
	if e.dir {
		return []byte{}, nil
	}
	return e.data, nil
}

func (e *memoryEntry) Text() (string, error) {
	return string(e.data), nil
}
