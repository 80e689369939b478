package storage

import (
	"bytes"
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStorage stores blobs in a public Supabase Storage bucket.
type SupabaseStorage struct {
	client  *storage_go.Client
	bucket  string
	public  string // URL prefix of public objects in the bucket
	maxSize int64
}

// NewSupabaseStorage talks to <projectURL>/storage/v1 with the service key.
func NewSupabaseStorage(projectURL, key, bucket string, maxSize int64) *SupabaseStorage {
	client := storage_go.NewClient(projectURL+"/storage/v1", key, map[string]string{
		"apikey": key,
	})
	return &SupabaseStorage{
		client:  client,
		bucket:  bucket,
		public:  projectURL + "/storage/v1/object/public/" + bucket + "/",
		maxSize: maxSize,
	}
}

func (s *SupabaseStorage) StoreFromBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("file exceeds %d bytes", s.maxSize)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := true
	_, err = s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return s.client.GetPublicUrl(s.bucket, key).SignedURL, nil
}

func (s *SupabaseStorage) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(url, s.public)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
