package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{
		data:         buf,
		contentType:  contentTypeOrDefault(contentType),
		lastModified: s.now(),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*models.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return &models.Blob{
		Data:         buf,
		ContentType:  obj.contentType,
		Size:         int64(len(buf)),
		LastModified: obj.lastModified,
	}, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]*models.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Object
	for k, obj := range s.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		result = append(result, &models.Object{
			Key:          k,
			Size:         int64(len(obj.data)),
			LastModified: obj.lastModified,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}
