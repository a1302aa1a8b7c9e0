package mongodb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/decoflow/production-service/internal/domain"
)

const (
	photoBucket    = "photos"
	photoURIPrefix = "gridfs://photos/"
)

// PhotoStore keeps photos in a GridFS bucket
type PhotoStore struct {
	bucket *gridfs.Bucket
}

func NewPhotoStore(db *mongo.Database) (*PhotoStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(photoBucket))
	if err != nil {
		return nil, fmt.Errorf("failed to open photo bucket: %w", err)
	}
	return &PhotoStore{bucket: bucket}, nil
}

// Store uploads data and returns a gridfs:// URI
func (p *PhotoStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", domain.NewValidationError("photo", "photo is empty")
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := p.bucket.SetWriteDeadline(deadline); err != nil {
			return "", err
		}
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	id, err := p.bucket.UploadFromStream("photo", bytes.NewReader(data), opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return photoURIPrefix + id.Hex(), nil
}

// Load downloads the photo behind uri
func (p *PhotoStore) Load(ctx context.Context, uri string) ([]byte, string, error) {
	hex, ok := strings.CutPrefix(uri, photoURIPrefix)
	if !ok {
		return nil, "", domain.NewValidationError("uri", fmt.Sprintf("not a stored photo: %q", uri))
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, "", domain.NewValidationError("uri", fmt.Sprintf("not a stored photo: %q", uri))
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := p.bucket.SetReadDeadline(deadline); err != nil {
			return nil, "", err
		}
	}

	cursor, err := p.bucket.Find(bson.M{"_id": id})
	if err != nil {
		return nil, "", fmt.Errorf("failed to find photo: %w", err)
	}
	var files []struct {
		Metadata struct {
			ContentType string `bson:"contentType"`
		} `bson:"metadata"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, "", fmt.Errorf("failed to decode photo metadata: %w", err)
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("photo %s: %w", hex, domain.ErrNotFound)
	}

	var buf bytes.Buffer
	if _, err := p.bucket.DownloadToStream(id, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", fmt.Errorf("photo %s: %w", hex, domain.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to download photo: %w", err)
	}
	return buf.Bytes(), files[0].Metadata.ContentType, nil
}
