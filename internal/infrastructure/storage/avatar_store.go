package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
)

// AvatarStore writes avatars to avatars/<userID>/<uuid><ext> in a GCS bucket.
type AvatarStore struct {
	client *gcs.Client
	bucket string
	// BaseURL replaces https://storage.googleapis.com/<bucket> in returned
	// URLs, e.g. for a CDN in front of the bucket.
	BaseURL string
}

func NewAvatarStore(client *gcs.Client, bucket string) *AvatarStore {
	return &AvatarStore{client: client, bucket: bucket}
}

func (s *AvatarStore) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error) {
	object := ObjectPath(userID, filename)
	wc := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // small files, single request
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return s.PublicURL(object), nil
}

func (s *AvatarStore) PublicURL(object string) string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/") + "/" + object
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object)
}

// ObjectPath keeps only the lower-cased extension of the client filename.
func ObjectPath(userID, filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	return path.Join("avatars", userID, uuid.NewString()+ext)
}

var _ application.AvatarStore = (*AvatarStore)(nil)
