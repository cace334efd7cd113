package container

import (
	"archive/zip"
	"io"
)

// ArchiveEntry is one member of an opened archive.
type ArchiveEntry struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// ArchiveReader opens an archive and enumerates its entries in archive
// order. The returned closer releases the archive; entry readers must not be
// used after it is closed.
type ArchiveReader interface {
	OpenEntries(path string) ([]ArchiveEntry, io.Closer, error)
}

// ZipArchiveReader reads .jar and .zip archives with archive/zip. A jar is a
// ZIP file whose manifest is an ordinary entry.
type ZipArchiveReader struct{}

var _ ArchiveReader = ZipArchiveReader{}

// OpenEntries opens the archive at path and lists every entry, directories
// included, in central-directory order.
func (ZipArchiveReader) OpenEntries(path string) ([]ArchiveEntry, io.Closer, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]ArchiveEntry, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, ArchiveEntry{Name: f.Name, Open: f.Open})
	}
	return entries, zr, nil
}
