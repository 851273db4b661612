package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// tokenMetadata is the object metadata key Firebase Storage checks the
// token query parameter of a download URL against.
const tokenMetadata = "firebaseStorageDownloadTokens"

// FirebaseStorage writes objects to a Firebase Storage bucket.
type FirebaseStorage struct {
	bucket *storage.BucketHandle
	name   string
}

// NewFirebaseStorage wraps a bucket obtained from the Firebase Admin SDK
// storage client. name is the bucket name used in download URLs.
func NewFirebaseStorage(bucket *storage.BucketHandle, name string) *FirebaseStorage {
	return &FirebaseStorage{bucket: bucket, name: name}
}

// Put writes the object with a fresh download token, so a re-upload under
// the same key revokes URLs handed out for the previous content.
func (s *FirebaseStorage) Put(ctx context.Context, key string, r io.Reader) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.Metadata = map[string]string{tokenMetadata: uuid.NewString()}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("put %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *FirebaseStorage) URL(ctx context.Context, key string) (string, error) {
	attrs, err := s.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("url %s: %w", key, err)
	}
	token, _, _ := strings.Cut(attrs.Metadata[tokenMetadata], ",")
	return DownloadURL(s.name, key, token), nil
}

// DownloadURL is the Firebase Storage REST download URL of an object. An
// empty token yields a URL that only works under public read rules.
func DownloadURL(bucket, key, token string) string {
	u := fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media",
		bucket, url.PathEscape(key))
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}
