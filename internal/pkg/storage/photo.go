package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Photo locates a stored original and its thumbnail.
type Photo struct {
	Path          string
	ThumbnailPath string
}

// PhotoStore saves room photos together with a generated thumbnail.
type PhotoStore struct {
	store     Storage
	processor *ImageProcessor
	prefix    string
}

func NewPhotoStore(store Storage, processor *ImageProcessor, prefix string) *PhotoStore {
	return &PhotoStore{store: store, processor: processor, prefix: prefix}
}

// Save validates content as an image, then stores it and its thumbnail under a fresh name.
func (s *PhotoStore) Save(ctx context.Context, content []byte) (*Photo, error) {
	thumb, err := s.processor.Thumbnail(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	name := uuid.NewString()
	photo := &Photo{
		Path:          fmt.Sprintf("%s/%s", s.prefix, name),
		ThumbnailPath: fmt.Sprintf("%s/%s_thumb.jpg", s.prefix, name),
	}

	if err := s.store.Save(ctx, photo.Path, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("save photo: %w", err)
	}
	if err := s.store.Save(ctx, photo.ThumbnailPath, bytes.NewReader(thumb)); err != nil {
		s.Delete(ctx, photo.Path)
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}
	return photo, nil
}

// Open returns the full content at path.
func (s *PhotoStore) Open(ctx context.Context, path string) ([]byte, error) {
	rc, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Delete removes every given path, logging failures. Empty paths are skipped.
func (s *PhotoStore) Delete(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.store.Delete(ctx, p); err != nil {
			logrus.WithError(err).WithField("path", p).Warn("failed to delete photo object")
		}
	}
}
