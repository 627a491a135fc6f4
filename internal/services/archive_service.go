package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"zapbook/internal/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const archiveBucket = "zapbook-metrics-archive"

// ArchiveService writes immutable copies of run artifacts to object
// storage. The database holds the working set; the archive holds the
// audit trail.
type ArchiveService interface {
	ArchiveBatchReport(ctx context.Context, report *models.BatchReport) error
	ArchivePlatformSnapshot(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error
	EnsureBucketExists(ctx context.Context) error
}

type minioArchive struct {
	client *minio.Client
}

func NewArchiveService(endpoint, accessKey, secretKey string, useSSL bool) (ArchiveService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioArchive{client: client}, nil
}

func (m *minioArchive) ArchiveBatchReport(ctx context.Context, report *models.BatchReport) error {
	objectName := fmt.Sprintf("batch-reports/%s.json", report.CalculationDate.Format("2006-01-02"))
	return m.putJSON(ctx, objectName, report)
}

func (m *minioArchive) ArchivePlatformSnapshot(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error {
	objectName := fmt.Sprintf("platform/%s/%s.json", snapshot.Period, snapshot.CalculationDate.Format("2006-01-02"))
	return m.putJSON(ctx, objectName, snapshot)
}

func (m *minioArchive) putJSON(ctx context.Context, objectName string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, archiveBucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (m *minioArchive) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, archiveBucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, archiveBucket, minio.MakeBucketOptions{})
	}
	return nil
}

// ArchiveSink adapts the archive to the batch pipeline.
type ArchiveSink struct {
	archive ArchiveService
}

func NewArchiveSink(archive ArchiveService) *ArchiveSink {
	return &ArchiveSink{archive: archive}
}

func (s *ArchiveSink) StoreBatchReport(ctx context.Context, report *models.BatchReport) error {
	return s.archive.ArchiveBatchReport(ctx, report)
}

func (s *ArchiveSink) StorePlatformSnapshot(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error {
	return s.archive.ArchivePlatformSnapshot(ctx, snapshot)
}
