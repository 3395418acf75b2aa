// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/config"
	"github.com/tomtom215/songbird/internal/metrics"
)

// RemoteTarget is a parsed bucket location such as s3://bucket/prefix.
type RemoteTarget struct {
	Scheme string
	Bucket string
	Prefix string
}

// String formats the target as scheme://bucket/prefix.
func (t RemoteTarget) String() string {
	if t.Prefix == "" {
		return fmt.Sprintf("%s://%s", t.Scheme, t.Bucket)
	}
	return fmt.Sprintf("%s://%s/%s", t.Scheme, t.Bucket, t.Prefix)
}

// Key returns the object key for an artifact file name.
func (t RemoteTarget) Key(name string) string {
	if t.Prefix == "" {
		return name
	}
	return path.Join(t.Prefix, name)
}

// ParseRemoteTarget parses s3:// and gs:// URIs. gs:// targets are written
// through the S3-compatible endpoint of the configured store.
func ParseRemoteTarget(raw string) (RemoteTarget, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return RemoteTarget{}, fmt.Errorf("invalid remote target %q: %w", raw, err)
	}
	if u.Scheme != "s3" && u.Scheme != "gs" {
		return RemoteTarget{}, fmt.Errorf("remote target %q must use s3:// or gs://", raw)
	}
	if u.Host == "" {
		return RemoteTarget{}, fmt.Errorf("remote target %q has no bucket", raw)
	}
	return RemoteTarget{
		Scheme: u.Scheme,
		Bucket: u.Host,
		Prefix: strings.Trim(u.Path, "/"),
	}, nil
}

// Uploader copies artifact sets to object storage.
type Uploader struct {
	client *minio.Client
	logger zerolog.Logger
}

// NewUploader creates an uploader from storage settings.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewUploader(cfg *config.StorageConfig, logger zerolog.Logger) (*Uploader, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, errors.New("storage endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	return &Uploader{
		client: client,
		logger: logger.With().Str("component", "uploader").Logger(),
	}, nil
}

// Upload puts every artifact in dir under target, manifest last.
func (u *Uploader) Upload(ctx context.Context, dir string, target RemoteTarget) error {
	exists, err := u.client.BucketExists(ctx, target.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", target.Bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", target.Bucket)
	}

	files := append(append([]string{}, dataFiles...), ManifestFile)
	for _, name := range files {
		if err := u.put(ctx, dir, name, target); err != nil {
			return err
		}
	}

	u.logger.Info().
		Str("target", target.String()).
		Int("files", len(files)).
		Msg("artifacts uploaded")
	return nil
}

func (u *Uploader) put(ctx context.Context, dir, name string, target RemoteTarget) error {
	contentType := "application/octet-stream"
	if name == ManifestFile {
		contentType = "application/json"
	}

	start := time.Now()
	info, err := u.client.FPutObject(ctx, target.Bucket, target.Key(name), filepath.Join(dir, name), minio.PutObjectOptions{
		ContentType: contentType,
	})
	status := 200
	if err != nil {
		status = 0
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.StatusCode > 0 {
			status = resp.StatusCode
		}
	}
	metrics.RecordExternalRequest("object_storage", status, time.Since(start))
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	u.logger.Debug().
		Str("key", target.Key(name)).
		Int64("bytes", info.Size).
		Msg("uploaded artifact")
	return nil
}
