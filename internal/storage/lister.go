package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// Lister enumerates the objects of a bucket, in the order the backend
// returns them. The scanner treats a listing failure as fatal.
type Lister interface {
	ListObjects(ctx context.Context, bucket string) ([]string, error)
}

// GCSLister lists Google Cloud Storage buckets using ambient credentials
// (GOOGLE_APPLICATION_CREDENTIALS or the metadata server).
type GCSLister struct {
	client *gcs.Client
}

func NewGCSLister(ctx context.Context) (*GCSLister, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSLister{client: client}, nil
}

func (l *GCSLister) ListObjects(ctx context.Context, bucket string) ([]string, error) {
	it := l.client.Bucket(bucket).Objects(ctx, nil)

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", bucket, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// Close releases the underlying client connections.
func (l *GCSLister) Close() error {
	return l.client.Close()
}
