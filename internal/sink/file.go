package sink

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// File writes to a device node or a regular file through a buffer, the
// same way a plain buffered file handle does.
type File struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &File{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *File) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, fmt.Errorf("file closed")
	}
	return s.w.Write(b)
}

func (s *File) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("file closed")
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", s.f.Name(), err)
	}
	return nil
}

func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	ferr := s.w.Flush()
	err := s.f.Close()
	s.f = nil
	if ferr != nil {
		return ferr
	}
	return err
}

func (s *File) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return "file{closed}"
	}
	return "file{" + s.f.Name() + "}"
}
