package interfaces

import "context"

type StorageService interface {
	// Save persists a blob under the tenant's directory and returns its
	// storage path relative to the upload root.
	Save(ctx context.Context, companyID, subdir, filename string, data []byte) (path string, size int64, err error)
	Load(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
