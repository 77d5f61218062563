// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"strings"
	"testing"
	"time"
)

// File is one archive member. A name ending in "/" is written as a directory.
type File struct {
	Name string
	Body []byte
}

// JSONFile is a convenience constructor for text members.
func JSONFile(name, body string) File {
	return File{Name: name, Body: []byte(body)}
}

// BuildZip writes files, in order, into an in-memory zip archive.
func BuildZip(t testing.TB, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.Create(f.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", f.Name, err)
		}
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if _, err := fw.Write(f.Body); err != nil {
			t.Fatalf("zip write %s: %v", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// BuildTarGz writes files, in order, into an in-memory tar+gzip archive.
func BuildTarGz(t testing.TB, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	modTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, f := range files {
		header := &tar.Header{
			Name:    f.Name,
			Mode:    0644,
			Size:    int64(len(f.Body)),
			ModTime: modTime,
		}
		if strings.HasSuffix(f.Name, "/") {
			header.Typeflag = tar.TypeDir
			header.Mode = 0755
			header.Size = 0
		} else {
			header.Typeflag = tar.TypeReg
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("tar header %s: %v", f.Name, err)
		}
		if header.Typeflag == tar.TypeReg {
			if _, err := tw.Write(f.Body); err != nil {
				t.Fatalf("tar write %s: %v", f.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}
