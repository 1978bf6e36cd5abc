package matidb

import (
	"errors"
	"io"
)

// fakeStorage is an in-memory Storage, grounded on the teacher's
// btree_test.go MemoryStorage, used so disk-manager/buffer-pool/table
// tests don't touch the filesystem.
type fakeStorage struct {
	data []byte
}

// ReadAt follows the io.ReaderAt contract: a read that reaches past the
// end of the data returns io.EOF, like *os.File does.
func (s *fakeStorage) ReadAt(buf []byte, off int64) (int, error) {
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(buf, s.data[off:])
	if n != len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (s *fakeStorage) WriteAt(buf []byte, off int64) (int, error) {
	if need := off + int64(len(buf)); need > int64(len(s.data)) {
		grown := make([]byte, need)
		copy(grown, s.data)
		s.data = grown
	}
	n := copy(s.data[off:], buf)
	return n, nil
}

func (s *fakeStorage) Truncate(size int64) error {
	if int64(len(s.data)) == size {
		return nil
	}
	grown := make([]byte, size)
	copy(grown, s.data)
	s.data = grown
	return nil
}

func (s *fakeStorage) Sync() error { return nil }

func (s *fakeStorage) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0: // io.SeekStart
		return offset, nil
	case 2: // io.SeekEnd
		return int64(len(s.data)) + offset, nil
	default:
		return 0, errors.New("fakeStorage: unsupported whence")
	}
}
