package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
)

// MaxImageBytes bounds a decoded recipe image.
const MaxImageBytes = 10 << 20

// imagePrefix is the key prefix of every stored recipe image.
const imagePrefix = "recipes/images/"

// ImageStore persists recipe images and returns the reference stored on the recipe.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeImage accepts a base64 data URI ("data:image/png;base64,...") or bare
// base64 and returns the image if its content sniffs as image/*.
func DecodeImage(s string) (*Image, error) {
	payload := strings.TrimSpace(s)
	if payload == "" {
		return nil, NewValidationError("image", "No file was submitted.")
	}
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, NewValidationError("image", "Image must be a base64 data URI.")
		}
		payload = payload[comma+1:]
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return nil, NewValidationError("image", fmt.Sprintf("Image must be at most %d bytes.", MaxImageBytes))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, NewValidationError("image", "Invalid base64 image data.")
	}
	if len(data) > MaxImageBytes {
		return nil, NewValidationError("image", fmt.Sprintf("Image must be at most %d bytes.", MaxImageBytes))
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, NewValidationError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	return &Image{Data: data, ContentType: mime.String(), Extension: mime.Extension()}, nil
}

// SaveImage decodes a data URI and stores it under a fresh name.
func SaveImage(ctx context.Context, store ImageStore, dataURI string) (string, error) {
	img, err := DecodeImage(dataURI)
	if err != nil {
		return "", err
	}
	key := imagePrefix + uuid.NewString() + img.Extension
	ref, err := store.Save(ctx, key, img.ContentType, img.Data)
	if err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return ref, nil
}

// discardImage removes an image that no recipe references anymore. Failures
// only leave an orphaned file, so they are logged and dropped.
func discardImage(ctx context.Context, store ImageStore, ref string) {
	if ref == "" {
		return
	}
	if err := store.Delete(ctx, ref); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", ref).Msg("failed to delete image")
	}
}

// LocalStore writes images below a media root served at baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a store rooted at root whose files are served under baseURL.
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalStore) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating media directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok || strings.Contains(key, "..") {
		return fmt.Errorf("image %q is not managed by this store", ref)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path.Clean(key))))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// S3Store uploads images to the configured bucket.
type S3Store struct {
	cfg *config.S3Config
}

// NewS3Store creates a store for the bucket in cfg.
func NewS3Store(cfg *config.S3Config) *S3Store {
	return &S3Store{cfg: cfg}
}

// Save uploads image data to S3 and returns the public URL
func (s *S3Store) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := s.cfg.PublicURL(key)
	logging.Ctx(ctx).Debug().Str("url", publicURL).Msg("uploaded image to S3")
	return publicURL, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, s.cfg.PublicURL(""))
	if !ok {
		return fmt.Errorf("image %q is not in bucket %s", ref, s.cfg.BucketName)
	}
	_, err := s.cfg.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
