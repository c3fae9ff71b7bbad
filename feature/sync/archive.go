package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"fleet-sync/core/reconcile"
	"fleet-sync/core/storage"
)

// Archive stores run artifacts in object storage: the raw feed under
// feeds/<run-id>.csv and the report under reports/<run-id>.json.
type Archive struct {
	client storage.Client
	bucket string
}

// NewArchive creates an archive on the given bucket.
func NewArchive(client storage.Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", a.bucket, err)
	}
	return nil
}

// StoreFeed archives the raw CSV feed of a run.
func (a *Archive) StoreFeed(ctx context.Context, runID string, data []byte) error {
	_, err := a.client.PutObject(ctx, a.bucket, feedObject(runID),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return fmt.Errorf("store feed: %w", err)
	}
	return nil
}

// StoreReport archives the JSON report of a run.
func (a *Archive) StoreReport(ctx context.Context, runID string, report *reconcile.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = a.client.PutObject(ctx, a.bucket, reportObject(runID),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

// FetchReport streams an archived report.
func (a *Archive) FetchReport(ctx context.Context, runID string) (io.ReadCloser, error) {
	rc, err := a.client.GetObject(ctx, a.bucket, reportObject(runID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch report: %w", err)
	}
	return rc, nil
}

func feedObject(runID string) string   { return "feeds/" + runID + ".csv" }
func reportObject(runID string) string { return "reports/" + runID + ".json" }
