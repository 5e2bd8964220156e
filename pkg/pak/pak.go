// Package pak reads and writes Quake PAK archives.
//
// A PAK file starts with a 12-byte header: the magic "PACK", then the offset
// and size of the directory. The directory is a run of 64-byte entries, each a
// NUL-padded 56-byte name followed by the file's offset and size. All integers
// are little-endian int32.
package pak

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/brushmap/pkg/encoding"
)

const (
	pakMagic  = "PACK"
	headerLen = 12
	entryLen  = 64
	// NameLen is the size of the name field of a directory entry.
	NameLen = 56
)

// Archive errors.
var (
	ErrNotPack   = errors.New("not a PAK archive")
	ErrNotFound  = errors.New("file not found in archive")
	ErrDuplicate = errors.New("duplicate file name in archive")
	ErrCorrupt   = errors.New("corrupt PAK archive")
)

// Archive represents an opened PAK archive.
type Archive struct {
	file    *os.File
	size    int64
	header  Header
	entries map[string]*Entry
}

// Header is the fixed PAK file header.
type Header struct {
	Magic     [4]byte
	DirOffset int32
	DirSize   int32
}

// Entry describes one file stored in the archive.
type Entry struct {
	Name   string // normalized
	Offset int64
	Size   int64
}

type rawEntry struct {
	Name   [NameLen]byte
	Offset int32
	Size   int32
}

// Open opens a PAK archive for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	archive := &Archive{
		file:    file,
		size:    info.Size(),
		entries: make(map[string]*Entry),
	}

	if err := archive.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if err := archive.readDirectory(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	return archive, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if err := binary.Read(a.file, binary.LittleEndian, &a.header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrNotPack
		}
		return err
	}

	if string(a.header.Magic[:]) != pakMagic {
		return ErrNotPack
	}

	h := a.header
	if h.DirOffset < 0 || h.DirSize < 0 || h.DirSize%entryLen != 0 ||
		int64(h.DirOffset)+int64(h.DirSize) > a.size {
		return fmt.Errorf("%w: directory at %d+%d outside %d-byte file",
			ErrCorrupt, h.DirOffset, h.DirSize, a.size)
	}

	return nil
}

func (a *Archive) readDirectory() error {
	if _, err := a.file.Seek(int64(a.header.DirOffset), io.SeekStart); err != nil {
		return err
	}

	count := int(a.header.DirSize / entryLen)
	raw := make([]rawEntry, count)
	if err := binary.Read(a.file, binary.LittleEndian, raw); err != nil {
		return err
	}

	for _, r := range raw {
		entry := &Entry{
			Name:   encoding.NormalizePath(encoding.FixedString(r.Name[:])),
			Offset: int64(r.Offset),
			Size:   int64(r.Size),
		}
		if entry.Offset < 0 || entry.Size < 0 || entry.Offset+entry.Size > a.size {
			return fmt.Errorf("%w: %s at %d+%d outside file", ErrCorrupt, entry.Name, entry.Offset, entry.Size)
		}
		if _, dup := a.entries[entry.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicate, entry.Name)
		}
		a.entries[entry.Name] = entry
	}

	return nil
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for path := range a.entries {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[encoding.NormalizePath(path)]
	return ok
}

// Stat returns the directory entry for path.
func (a *Archive) Stat(path string) (*Entry, error) {
	entry, ok := a.entries[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return entry, nil
}

// Open returns a reader over one file of the archive.
func (a *Archive) Open(path string) (*io.SectionReader, error) {
	entry, err := a.Stat(path)
	if err != nil {
		return nil, err
	}
	return io.NewSectionReader(a.file, entry.Offset, entry.Size), nil
}

// Read reads a whole file from the archive.
func (a *Archive) Read(path string) ([]byte, error) {
	r, err := a.Open(path)
	if err != nil {
		return nil, err
	}
	data := make([]byte, r.Size())
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// File is one file to store with Write.
type File struct {
	Name string
	Data []byte
}

// Write writes files as a PAK archive to w. File data comes first, then the
// directory.
func Write(w io.Writer, files []File) error {
	seen := make(map[string]bool, len(files))
	dir := make([]rawEntry, 0, len(files))
	offset := int64(headerLen)
	for _, f := range files {
		name := encoding.NormalizePath(f.Name)
		if len(name) >= NameLen {
			return fmt.Errorf("name too long (max %d bytes): %s", NameLen-1, f.Name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrDuplicate, name)
		}
		seen[name] = true

		var e rawEntry
		copy(e.Name[:], encoding.PutFixedString(name, NameLen))
		e.Offset = int32(offset)
		e.Size = int32(len(f.Data))
		dir = append(dir, e)
		offset += int64(len(f.Data))
	}

	header := Header{DirOffset: int32(offset), DirSize: int32(len(dir) * entryLen)}
	copy(header.Magic[:], pakMagic)
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, f := range files {
		if _, err := w.Write(f.Data); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, dir); err != nil {
		return fmt.Errorf("writing directory: %w", err)
	}
	return nil
}

// WriteFile writes files as a PAK archive at path.
func WriteFile(path string, files []File) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, files); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
