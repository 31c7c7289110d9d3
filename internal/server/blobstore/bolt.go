package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

var (
	boltMetaBucket = []byte("meta")
	boltDataBucket = []byte("data")
)

type boltMeta struct {
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// BoltStore keeps objects in a single bbolt file, for single-node deployments
// without object storage. Metadata and bodies live in separate buckets so a
// listing never reads bodies.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltStore opens (creating if needed) the database file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty bolt path", common.ErrInvalidInput)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt open error: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{boltMetaBucket, boltDataBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt init error: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	meta, err := json.Marshal(boltMeta{
		ContentType:  contentTypeOrDefault(contentType),
		Size:         int64(len(data)),
		LastModified: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(boltDataBucket).Put([]byte(key), data); err != nil {
			return err
		}
		return tx.Bucket(boltMetaBucket).Put([]byte(key), meta)
	})
}

func (s *BoltStore) Get(_ context.Context, key string) (*models.Blob, error) {
	var blob *models.Blob

	err := s.db.View(func(tx *bolt.Tx) error {
		rawMeta := tx.Bucket(boltMetaBucket).Get([]byte(key))
		if rawMeta == nil {
			return common.ErrorNotFound
		}

		var m boltMeta
		if err := json.Unmarshal(rawMeta, &m); err != nil {
			return fmt.Errorf("corrupt metadata for %q: %w", key, err)
		}

		// Values returned by bbolt are only valid inside the transaction.
		data := bytes.Clone(tx.Bucket(boltDataBucket).Get([]byte(key)))
		if data == nil {
			data = []byte{}
		}

		blob = &models.Blob{
			Data:         data,
			ContentType:  m.ContentType,
			Size:         m.Size,
			LastModified: m.LastModified,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *BoltStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(boltMetaBucket).Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(boltDataBucket).Delete([]byte(key))
	})
}

// List walks keys in byte order starting at prefix.
func (s *BoltStore) List(_ context.Context, prefix string) ([]*models.Object, error) {
	var result []*models.Object
	p := []byte(prefix)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltMetaBucket).Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			var m boltMeta
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("corrupt metadata for %q: %w", k, err)
			}
			result = append(result, &models.Object{
				Key:          string(k),
				Size:         m.Size,
				LastModified: m.LastModified,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
