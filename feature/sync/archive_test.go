package sync

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fleet-sync/core/reconcile"
	"fleet-sync/core/storage/mocks"
)

func TestArchive_EnsureBucket(t *testing.T) {
	t.Run("AlreadyExists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "fleet-sync").Return(true, nil)

		a := NewArchive(client, "fleet-sync")
		require.NoError(t, a.EnsureBucket(context.Background()))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Creates", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "fleet-sync").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "fleet-sync", mock.Anything).Return(nil)

		a := NewArchive(client, "fleet-sync")
		require.NoError(t, a.EnsureBucket(context.Background()))
		client.AssertExpectations(t)
	})
}

func TestArchive_StoreFeed(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "fleet-sync", "feeds/run-1.csv",
		mock.Anything, int64(4), mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
			return opts.ContentType == "text/csv"
		})).
		Return(minio.UploadInfo{}, nil)

	a := NewArchive(client, "fleet-sync")
	require.NoError(t, a.StoreFeed(context.Background(), "run-1", []byte("feed")))
	client.AssertExpectations(t)
}

func TestArchive_StoreAndFetchReport(t *testing.T) {
	var stored bytes.Buffer
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "fleet-sync", "reports/run-1.json",
		mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_, _ = stored.ReadFrom(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	a := NewArchive(client, "fleet-sync")
	report := &reconcile.Report{RunID: "run-1", Created: 3}
	require.NoError(t, a.StoreReport(context.Background(), "run-1", report))
	assert.Contains(t, stored.String(), `"run_id": "run-1"`)

	client.On("GetObject", mock.Anything, "fleet-sync", "reports/run-1.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(stored.Bytes())), nil)

	rc, err := a.FetchReport(context.Background(), "run-1")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, stored.Bytes(), data)
}
