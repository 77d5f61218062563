package container

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

type zipContainer struct {
	index
}

func openZip(data []byte) (*zipContainer, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	c := &zipContainer{index: newIndex(len(reader.File))}
	for _, f := range reader.File {
		c.add(&zipEntry{file: f, name: normalizePath(f.Name)})
	}
	return c, nil
}

func (c *zipContainer) Format() Format {
	return FormatZip
}

func (c *zipContainer) Close() error {
	return nil
}

type zipEntry struct {
	file *zip.File
	name string
}

func (e *zipEntry) Name() string {
	return e.name
}

func (e *zipEntry) IsDir() bool {
	return e.file.FileInfo().IsDir()
}

func (e *zipEntry) Size() int64 {
	return int64(e.file.UncompressedSize64)
}

// Open decompresses only this entry.
func (e *zipEntry) Open() (io.ReadCloser, error) {
	if e.IsDir() {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	return rc, nil
}

func (e *zipEntry) Bytes() ([]byte, error) {
	return readAll(e)
}

func (e *zipEntry) Text() (string, error) {
	b, err := readAll(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
