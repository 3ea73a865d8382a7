package services

import (
	"context"
	"encoding/base64"
	"fmt"
)

// PhotoStore keeps an uploaded photo and returns a reference to it.
// Content is never inspected here beyond what the caller already checked.
type PhotoStore interface {
	Put(ctx context.Context, sessionID, contentType string, data []byte) (string, error)
}

type imageUploader interface {
	UploadImage(ctx context.Context, prefix, contentType string, data []byte) (string, error)
}

// S3PhotoStore uploads photos to the configured bucket.
type S3PhotoStore struct {
	uploader imageUploader
}

func NewS3PhotoStore(u imageUploader) *S3PhotoStore {
	return &S3PhotoStore{uploader: u}
}

func (p *S3PhotoStore) Put(ctx context.Context, sessionID, contentType string, data []byte) (string, error) {
	url, err := p.uploader.UploadImage(ctx, "photos/"+sessionID, contentType, data)
	if err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return url, nil
}

// InlinePhotoStore keeps the photo as a data URL on the session itself.
// It is used when no bucket is configured.
type InlinePhotoStore struct{}

func (InlinePhotoStore) Put(_ context.Context, _ string, contentType string, data []byte) (string, error) {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
