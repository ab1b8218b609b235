package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// BlobStore writes opaque files to a Cloud Storage bucket and returns their
// public object URLs. Object keys are laid out by the purpose path builders.
type BlobStore struct {
	client *gcs.Client
	bucket string
}

// NewBlobStore constructs a BlobStore over the given bucket.
func NewBlobStore(client *gcs.Client, bucket string) (*BlobStore, error) {
	if client == nil {
		return nil, errors.New("storage blobstore: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	return &BlobStore{
		client: client,
		bucket: bucket,
	}, nil
}

// StoreBlob uploads the content under the category's path layout and returns
// the object URL. ownerID scopes the layout: order ID for delivery proofs,
// merchant ID for logos.
func (s *BlobStore) StoreBlob(ctx context.Context, content io.Reader, category string, ownerID string, fileName string, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("storage blobstore: not initialised")
	}
	if content == nil {
		return "", errors.New("storage blobstore: content is required")
	}

	purpose := AssetPurpose(strings.TrimSpace(category))
	params := PathParams{FileName: fileName}
	switch purpose {
	case PurposeDeliveryProof:
		params.OrderID = ownerID
	case PurposeMerchantLogo:
		params.MerchantID = ownerID
	}
	object, err := BuildObjectPath(purpose, params)
	if err != nil {
		return "", err
	}

	writer := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if contentType = strings.TrimSpace(contentType); contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, content); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage blobstore: write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage blobstore: finalise object: %w", err)
	}
	return s.objectURL(object), nil
}

// DeleteBlob removes the object addressed by a URL previously returned from
// StoreBlob. Deleting an already absent object is not an error.
func (s *BlobStore) DeleteBlob(ctx context.Context, blobURL string) error {
	if s == nil || s.client == nil {
		return errors.New("storage blobstore: not initialised")
	}
	object, err := s.objectFromURL(blobURL)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(object).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("storage blobstore: delete object: %w", err)
	}
	return nil
}

func (s *BlobStore) objectURL(object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object)
}

func (s *BlobStore) objectFromURL(blobURL string) (string, error) {
	blobURL = strings.TrimSpace(blobURL)
	if blobURL == "" {
		return "", errors.New("storage blobstore: url is required")
	}
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return "", fmt.Errorf("storage blobstore: parse url: %w", err)
	}
	prefix := "/" + s.bucket + "/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return "", fmt.Errorf("storage blobstore: url does not address bucket %s", s.bucket)
	}
	object := strings.TrimPrefix(parsed.Path, prefix)
	if object == "" {
		return "", errors.New("storage blobstore: url has no object path")
	}
	return object, nil
}
