package storage

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// DocumentKey is the LevelDB key the ledger document lives under.
const DocumentKey = "ledger:document"

// LevelDBBackend stores the whole document as one value in a LevelDB
// database. It gives no per-block indexing; the ledger is still read and
// written as a unit.
type LevelDBBackend struct {
	db   *leveldb.DB
	path string
}

// NewLevelDBBackend opens (or creates) the database at path.
func NewLevelDBBackend(path string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDBBackend{db: db, path: path}, nil
}

// Read retrieves the document from LevelDB.
func (s *LevelDBBackend) Read() ([]byte, error) {
	data, err := s.db.Get([]byte(DocumentKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get: %w", err)
	}
	return data, nil
}

// Write stores the document in LevelDB, replacing any previous value.
func (s *LevelDBBackend) Write(data []byte) error {
	if err := s.db.Put([]byte(DocumentKey), data, nil); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

// Delete drops the stored document.
func (s *LevelDBBackend) Delete() error {
	return s.db.Delete([]byte(DocumentKey), nil)
}

func (s *LevelDBBackend) Close() error {
	return s.db.Close()
}

// DB exposes the underlying LevelDB instance
func (s *LevelDBBackend) DB() *leveldb.DB {
	return s.db
}

func (s *LevelDBBackend) String() string {
	return "leveldb:" + s.path
}
