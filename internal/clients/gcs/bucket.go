package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// BucketService resolves stored document files. Uploads and deletion belong
// to the upload surface, which lives outside this service; the pipeline only
// ever reads files back by storage key.
type BucketService interface {
	ReadAll(ctx context.Context, key string) ([]byte, error)
}

type bucketService struct {
	log        *logger.Logger
	client     *storage.Client
	bucketName string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	bucketName := os.Getenv("DOCUMENT_GCS_BUCKET_NAME")
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var DOCUMENT_GCS_BUCKET_NAME")
	}

	opts := clientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadOnly))
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketService{
		log:        serviceLog,
		client:     client,
		bucketName: bucketName,
	}, nil
}

// ReadAll fetches the whole object. Document files are bounded by the upload
// size limit, so buffering in memory is fine.
func (bs *bucketService) ReadAll(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := bs.client.Bucket(bs.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %q: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
