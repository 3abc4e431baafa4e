package tilearchive

import (
	"fmt"
	"os"
)

// Sink is the C7 byte-sink collaborator. appendSync is used once, at
// construction, to reserve the prelude; append extends the tile data and
// leaf regions during writing; write patches an already-reserved byte
// range (the prelude) at commit time.
type Sink interface {
	Append(b []byte) error
	AppendSync(b []byte) error
	WriteAt(b []byte, offset uint64) error
	Size() uint64
}

// MemorySink accumulates an archive entirely in memory.
type MemorySink struct {
	buf []byte
}

func (s *MemorySink) Append(b []byte) error {
	s.buf = append(s.buf, b...)
	return nil
}

func (s *MemorySink) AppendSync(b []byte) error {
	return s.Append(b)
}

func (s *MemorySink) WriteAt(b []byte, offset uint64) error {
	if offset+uint64(len(b)) > uint64(len(s.buf)) {
		return fmt.Errorf("tilearchive: write at %d exceeds sink size %d", offset, len(s.buf))
	}
	copy(s.buf[offset:], b)
	return nil
}

func (s *MemorySink) Size() uint64 {
	return uint64(len(s.buf))
}

// Bytes returns the sink's current contents without copying.
func (s *MemorySink) Bytes() []byte {
	return s.buf
}

// FileSink writes an archive straight to an *os.File, the way the
// teacher's writer keeps one open file handle for the whole session.
type FileSink struct {
	file   *os.File
	offset uint64
}

// NewFileSink opens (creating if necessary) path for a fresh writer
// session.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("tilearchive: open sink file: %w", err)
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Append(b []byte) error {
	n, err := s.file.WriteAt(b, int64(s.offset))
	if err != nil {
		return fmt.Errorf("tilearchive: append: %w", err)
	}
	s.offset += uint64(n)
	return nil
}

func (s *FileSink) AppendSync(b []byte) error {
	if err := s.Append(b); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *FileSink) WriteAt(b []byte, offset uint64) error {
	_, err := s.file.WriteAt(b, int64(offset))
	if err != nil {
		return fmt.Errorf("tilearchive: write at %d: %w", offset, err)
	}
	return nil
}

func (s *FileSink) Size() uint64 {
	return s.offset
}

// Close closes the underlying file. Callers must Commit the writer before
// closing the sink.
func (s *FileSink) Close() error {
	return s.file.Close()
}
