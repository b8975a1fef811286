package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/tracing"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// localStorageService keeps attachment blobs on local disk under
// {root}/{companyID}/{subdir}/{uuid}_{filename}.
type localStorageService struct {
	log  logger.Logger
	root string
}

func NewLocalStorageService(log logger.Logger, root string) interfaces.StorageService {
	return &localStorageService{
		log:  log,
		root: root,
	}
}

func (s *localStorageService) Save(ctx context.Context, companyID, subdir, filename string, data []byte) (string, int64, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "localStorageService.Save")
	defer span.Finish()
	tracing.TagCompany(span, companyID)

	safe := unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "_")
	if safe == "" || safe == "." {
		safe = "attachment"
	}

	relPath := filepath.Join(companyID, subdir, fmt.Sprintf("%s_%s", uuid.New().String(), safe))
	absPath := filepath.Join(s.root, relPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0o750); err != nil {
		tracing.TraceErr(span, err)
		return "", 0, err
	}
	if err := os.WriteFile(absPath, data, 0o640); err != nil {
		tracing.TraceErr(span, err)
		return "", 0, err
	}

	return relPath, int64(len(data)), nil
}

func (s *localStorageService) Load(ctx context.Context, path string) ([]byte, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "localStorageService.Load")
	defer span.Finish()

	absPath, err := s.resolve(path)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return data, nil
}

func (s *localStorageService) Delete(ctx context.Context, path string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "localStorageService.Delete")
	defer span.Finish()

	absPath, err := s.resolve(path)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// resolve rejects paths escaping the storage root.
func (s *localStorageService) resolve(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return filepath.Join(s.root, cleaned), nil
}
