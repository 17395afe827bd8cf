package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"castingbase/internal/blob"
	dErrors "castingbase/pkg/domain-errors"
	"castingbase/pkg/requestcontext"
)

// maxPhotoBytes caps profile photo uploads at 8 MiB.
const maxPhotoBytes = 8 << 20

var (
	allowedPhotoExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
	allowedPhotoContentTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
	}
)

// WithBlobStore injects the photo blob store.
func WithBlobStore(store blob.Store) Option {
	return func(s *Service) { s.blobs = store }
}

// UploadProfilePhoto validates and stores a profile photo for an identity,
// replacing any previous one, and returns the new blob ref.
func (s *Service) UploadProfilePhoto(ctx context.Context, id uuid.UUID, filename, contentType string, size int64, content io.Reader) (string, error) {
	if s.blobs == nil {
		return "", dErrors.New(dErrors.CodeInternal, "blob store is not configured")
	}
	if size <= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "no file uploaded")
	}
	if size > maxPhotoBytes {
		return "", dErrors.New(dErrors.CodeInvalidInput, "file size too large, maximum allowed is 8 MB")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedPhotoExtensions[ext] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid file type, only .jpg, .jpeg and .png files are allowed")
	}
	if !allowedPhotoContentTypes[strings.ToLower(contentType)] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid content type, only JPG and PNG images are allowed")
	}

	identity, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if identity.ProfilePhoto != "" {
		if err := s.blobs.Delete(ctx, identity.ProfilePhoto); err != nil {
			s.logger.WarnContext(ctx, "previous profile photo delete failed",
				"identity_id", id,
				"error", err,
			)
		}
	}

	ref, err := s.blobs.Save(ctx, filename, io.LimitReader(content, maxPhotoBytes))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store photo")
	}

	identity.ProfilePhoto = ref
	identity.UpdatedAt = requestcontext.Now(ctx)
	if err := s.identities.UpdateInPlace(ctx, identity); err != nil {
		_ = s.blobs.Delete(ctx, ref)
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record photo")
	}
	return ref, nil
}

// ResolveProfilePhoto returns a servable path for an identity's photo.
func (s *Service) ResolveProfilePhoto(ctx context.Context, id uuid.UUID) (string, error) {
	if s.blobs == nil {
		return "", dErrors.New(dErrors.CodeInternal, "blob store is not configured")
	}
	identity, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if identity.ProfilePhoto == "" {
		return "", dErrors.New(dErrors.CodeNotFound, "identity has no profile photo")
	}
	path, err := s.blobs.Resolve(ctx, identity.ProfilePhoto)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeNotFound, "profile photo missing from blob store")
	}
	return path, nil
}
