package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/decoflow/production-service/internal/domain"
)

const (
	photoPrefix     = "photo:"
	photoMetaPrefix = "photo-meta:"
	photoURIPrefix  = "badger://photos/"
)

// PhotoStore keeps photo bytes next to the rest of the data. Meant for
// single node installs; deployments on MongoDB use GridFS instead.
type PhotoStore struct {
	store *Store
}

// NewPhotoStore creates a PhotoStore
func NewPhotoStore(store *Store) *PhotoStore {
	return &PhotoStore{store: store}
}

type photoMeta struct {
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	StoredAt    time.Time `json:"storedAt"`
}

// Store saves data and returns its badger:// URI
func (p *PhotoStore) Store(ctx context.Context, data []byte, contentType string) (uri string, err error) {
	defer func(start time.Time) { p.store.observe(ctx, "photos", "insert", start, err) }(time.Now())

	if len(data) == 0 {
		return "", domain.NewValidationError("photo", "photo is empty")
	}

	id := uuid.New().String()
	err = p.store.update(ctx, func(txn *badger.Txn) error {
		if err := txn.Set([]byte(photoPrefix+id), data); err != nil {
			return err
		}
		return setJSON(txn, []byte(photoMetaPrefix+id), photoMeta{
			ContentType: contentType,
			Size:        len(data),
			StoredAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return "", err
	}
	return photoURIPrefix + id, nil
}

// Load returns the bytes and content type behind uri
func (p *PhotoStore) Load(ctx context.Context, uri string) (data []byte, contentType string, err error) {
	defer func(start time.Time) { p.store.observe(ctx, "photos", "find", start, err) }(time.Now())

	id, ok := strings.CutPrefix(uri, photoURIPrefix)
	if !ok || id == "" {
		return nil, "", domain.NewValidationError("uri", fmt.Sprintf("not a stored photo: %q", uri))
	}

	err = p.store.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(photoPrefix + id))
		if err != nil {
			return err
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		var meta photoMeta
		if err := getJSON(txn, []byte(photoMetaPrefix+id), &meta); err != nil {
			return err
		}
		contentType = meta.ContentType
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, "", fmt.Errorf("photo %s: %w", id, domain.ErrNotFound)
	}
	return data, contentType, err
}
