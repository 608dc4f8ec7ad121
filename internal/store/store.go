// Package store provides a thin bbolt wrapper that keeps the last completed
// snapshot of every target, so a restarted dashboard can show stale data
// while its first fetch is in flight.
//
// Buckets:
//
//	snapshots: JSON-encoded entries keyed by target ID
//	_meta:     internal: schema version, created_at
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	bolt "go.etcd.io/bbolt"

	pimonerrors "github.com/rileyhilliard/pimon/internal/errors"
	"github.com/rileyhilliard/pimon/internal/metrics"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

var (
	bucketSnapshots = []byte("snapshots")
	bucketInternal  = []byte("_meta")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is a cached snapshot and the time it was fetched.
type Entry struct {
	Snapshot  metrics.Snapshot `json:"snapshot"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path. Parent directories are
// created automatically. Fails after a short timeout when another process
// holds the file lock.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, pimonerrors.WrapWithCode(err, pimonerrors.ErrStore,
			"Cannot create snapshot cache directory",
			"Check permissions for "+filepath.Dir(path))
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, pimonerrors.WrapWithCode(err, pimonerrors.ErrStore,
			"Cannot open snapshot cache "+path,
			"Another pimon instance may be using it; set a different cache_path or remove it")
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, pimonerrors.WrapWithCode(err, pimonerrors.ErrStore,
			"Snapshot cache migration failed", "Delete "+path+" and restart")
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSnapshots, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutSnapshot replaces the cached snapshot for targetID.
func (s *Store) PutSnapshot(targetID string, snap metrics.Snapshot, fetchedAt time.Time) error {
	data, err := json.Marshal(Entry{Snapshot: snap, FetchedAt: fetchedAt.UTC()})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(targetID), data)
	})
}

// GetSnapshot returns the cached entry for targetID.
// Returns (entry, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) GetSnapshot(targetID string) (Entry, bool, error) {
	var (
		entry Entry
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSnapshots).Get([]byte(targetID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading snapshot %s: %w", targetID, err)
	}
	return entry, found, nil
}

// DeleteSnapshot removes the cached snapshot for targetID, if any.
func (s *Store) DeleteSnapshot(targetID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Delete([]byte(targetID))
	})
}

// Targets lists the IDs that have a cached snapshot.
func (s *Store) Targets() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// SchemaVersion returns the stored schema version string.
func (s *Store) SchemaVersion() (string, error) {
	var v string
	err := s.db.View(func(tx *bolt.Tx) error {
		v = string(tx.Bucket(bucketInternal).Get([]byte("schema_version")))
		return nil
	})
	return v, err
}
