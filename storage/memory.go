package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	currency "github.com/malusev998/currency-converter"
)

type (
	memoryObject struct {
		body         []byte
		lastModified time.Time
	}

	// MemoryStorage keeps objects in a map. It backs tests and dry runs.
	MemoryStorage struct {
		objects map[string]memoryObject
		now     func() time.Time
	}
)

func NewMemoryStorage(now func() time.Time) *MemoryStorage {
	if now == nil {
		now = time.Now
	}

	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		now:     now,
	}
}

func (m *MemoryStorage) List(_ context.Context, prefix string) ([]currency.Object, error) {
	objects := make([]currency.Object, 0, len(m.objects))

	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		objects = append(objects, currency.Object{
			Key:          key,
			Size:         int64(len(obj.body)),
			LastModified: obj.lastModified,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})

	return objects, nil
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	obj, ok := m.objects[key]
	if !ok {
		return nil, notFound(key)
	}

	body := make([]byte, len(obj.body))
	copy(body, obj.body)

	return body, nil
}

func (m *MemoryStorage) Put(_ context.Context, key string, body []byte) error {
	stored := make([]byte, len(body))
	copy(stored, body)

	m.objects[key] = memoryObject{
		body:         stored,
		lastModified: m.now(),
	}

	return nil
}

// Delete removes key. Deleting a missing key is not an error, as with S3.
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *MemoryStorage) GetStorageProviderName() string {
	return string(Memory)
}

func (m *MemoryStorage) Close() error {
	return nil
}
