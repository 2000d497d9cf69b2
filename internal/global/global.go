// Package global manages per-user state shared across projects:
// service credentials kept in a bbolt database under the home
// directory.
package global

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	dirName    = ".xeval"
	dbFileName = "global.db"

	authBucket = "auth"
)

// ServiceOpenAI is the credential slot for the OpenAI API.
const ServiceOpenAI = "openai"

// credential is the stored record for one service.
type credential struct {
	Token string `json:"token"`
}

// Store is the bbolt-backed global store. Open it at process start,
// close it at process end; operations in between are explicit.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open opens the store at its default location under the user's home
// directory, creating directory and database as needed.
func Open() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}
	return OpenPath(filepath.Join(home, dirName, dbFileName))
}

// OpenPath opens the store at an explicit path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create global dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open global db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(authBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init global db: %w", err)
	}
	return &Store{db: db}, nil
}

// Token returns the stored token for a service, or "" when none is
// persisted.
func (s *Store) Token(service string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cred credential
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(authBucket)).Get([]byte(service))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &cred)
	})
	if err != nil {
		return "", fmt.Errorf("read %s credential: %w", service, err)
	}
	return cred.Token, nil
}

// SetToken persists the token for a service, replacing any previous
// one.
func (s *Store) SetToken(service, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(credential{Token: token})
		if err != nil {
			return fmt.Errorf("marshal %s credential: %w", service, err)
		}
		return tx.Bucket([]byte(authBucket)).Put([]byte(service), data)
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
