// Package osz provides read-only access to .osz beatmap set archives.
//
// An .osz file is a zip archive holding every difficulty of a set (.osu
// files) together with the audio and image assets they reference.
package osz

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/Faultbox/beatmap/pkg/beatmap"
	"github.com/Faultbox/beatmap/pkg/encoding"
)

// ErrNotFound is returned when an archive has no entry for a path.
var ErrNotFound = errors.New("file not found")

// Archive represents an opened .osz archive.
type Archive struct {
	name     string
	closer   io.Closer
	fileList map[string]*zip.File
}

// Open opens an .osz archive for reading.
func Open(name string) (*Archive, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	archive := newArchive(name, &rc.Reader)
	archive.closer = rc
	return archive, nil
}

// NewReader reads an archive of the given size from r. name is used as
// the base path of charts parsed from it.
func NewReader(name string, r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return newArchive(name, zr), nil
}

func newArchive(name string, zr *zip.Reader) *Archive {
	a := &Archive{
		name:     name,
		fileList: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		key := encoding.NormalizePath(f.Name)
		// first entry wins when two names differ only by case
		if _, dup := a.fileList[key]; !dup {
			a.fileList[key] = f
		}
	}
	return a
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Name returns the path the archive was opened from.
func (a *Archive) Name() string {
	return a.name
}

// List returns all file paths in the archive, normalized and sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for p := range a.fileList {
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists.
func (a *Archive) Contains(p string) bool {
	_, ok := a.fileList[encoding.NormalizePath(p)]
	return ok
}

// Read reads a file from the archive.
func (a *Archive) Read(p string) ([]byte, error) {
	f, ok := a.fileList[encoding.NormalizePath(p)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// Beatmaps returns the paths of the .osu charts in the archive.
func (a *Archive) Beatmaps() []string {
	var result []string
	for _, p := range a.List() {
		if path.Ext(p) == ".osu" {
			result = append(result, p)
		}
	}
	return result
}

// ParseBeatmap parses one chart of the archive. The archive path is used
// as the chart's base path.
func (a *Archive) ParseBeatmap(p string, opts ...beatmap.Option) (*beatmap.Beatmap, error) {
	data, err := a.Read(p)
	if err != nil {
		return nil, err
	}
	return beatmap.Parse(a.name, bytes.NewReader(data), opts...)
}

// IsArchive reports whether name looks like a beatmap set archive.
func IsArchive(name string) bool {
	return strings.EqualFold(path.Ext(name), ".osz")
}
