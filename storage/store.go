package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/openfms/gps-relay/relay"
)

const (
	positionFile = "position.json"
	callingFile  = "calling.json"
)

// Calling is the device alert flag document.
type Calling struct {
	Calling int `json:"calling"`
}

// FileStore keeps the latest position and calling flag as flat JSON
// files, last write wins. Writers are infrequent and single-client, so a
// single mutex is all the coordination needed.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) SavePosition(pos relay.Position) error {
	return fs.save(positionFile, pos)
}

func (fs *FileStore) LoadPosition() (relay.Position, error) {
	var pos relay.Position
	err := fs.load(positionFile, &pos)
	return pos, err
}

func (fs *FileStore) SaveCalling(c Calling) error {
	return fs.save(callingFile, c)
}

func (fs *FileStore) LoadCalling() (Calling, error) {
	var c Calling
	err := fs.load(callingFile, &c)
	return c, err
}

func (fs *FileStore) save(name string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := os.WriteFile(filepath.Join(fs.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (fs *FileStore) load(name string, doc any) error {
	fs.mu.Lock()
	data, err := os.ReadFile(filepath.Join(fs.dir, name))
	fs.mu.Unlock()
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}
