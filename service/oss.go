package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"FrameForge-server/config"
)

// ObjectStore mirrors finished artifacts to a MinIO bucket so they survive
// local disk cleanup. The mirror is optional and best-effort.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore connects to the configured MinIO endpoint, creating the
// bucket if it does not exist. Returns nil when no endpoint is configured.
func NewObjectStore(ctx context.Context) (*ObjectStore, error) {
	cfg := config.AppConfig.MinIO
	if cfg.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connect: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio bucket create: %w", err)
		}
	}
	return &ObjectStore{client: client, bucket: cfg.Bucket}, nil
}

// MirrorArtifacts uploads a project's final video and thumbnail when they
// exist. Failures are logged and never propagate.
func (s *ObjectStore) MirrorArtifacts(ctx context.Context, root, projectID string) {
	if s == nil {
		return
	}
	for _, rel := range []string{filepath.Join("video", "final.mp4"), "thumbnail.png"} {
		local := filepath.Join(root, projectID, rel)
		if !fileExists(local) {
			continue
		}
		object := projectID + "/" + filepath.ToSlash(rel)
		if _, err := s.client.FPutObject(ctx, s.bucket, object, local, minio.PutObjectOptions{}); err != nil {
			config.Log.WithError(err).WithFields(map[string]interface{}{
				"project": projectID,
				"object":  object,
			}).Warn("artifact mirror upload failed")
		}
	}
}

type mirroredUnit struct {
	inner StageUnit
	store *ObjectStore
	root  string
}

func (m *mirroredUnit) Run(ctx context.Context, projectID string) error {
	if err := m.inner.Run(ctx, projectID); err != nil {
		return err
	}
	m.store.MirrorArtifacts(ctx, m.root, projectID)
	return nil
}

// WrapMastering decorates the composition unit so finished artifacts are
// mirrored after a successful run.
func (s *ObjectStore) WrapMastering(unit StageUnit, root string) StageUnit {
	if s == nil {
		return unit
	}
	return &mirroredUnit{inner: unit, store: s, root: root}
}

// PresignedURL returns a short-lived download link for a mirrored object.
func (s *ObjectStore) PresignedURL(ctx context.Context, object string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("object store not configured")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, object, 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", object, err)
	}
	return u.String(), nil
}
