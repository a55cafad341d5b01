package minio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes the bucket uploads are written to.
type Config struct {
	// Endpoint may carry a scheme; "https://" turns on TLS.
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicBaseURL prefixes object keys in returned URIs. When empty the
	// URI points at the bucket on Endpoint.
	PublicBaseURL string
}

// Store uploads profile media to MinIO or any S3-compatible service.
type Store struct {
	cfg    Config
	client *mclient.Client
	base   string
}

var _ goSession.MediaStore = (*Store)(nil)

// New creates the client and fails fast if the bucket is missing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	const op = "media.minio.New"

	if cfg.Bucket == "" {
		return nil, errors.New(op + ": empty bucket")
	}

	endpoint, secure := normalizeEndpoint(cfg.Endpoint)
	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}

	return &Store{cfg: cfg, client: client, base: base}, nil
}

// Upload writes the asset under "<kind>/<principal>/<uuid><ext>" and returns
// its public URI.
func (s *Store) Upload(ctx context.Context, principalID string, kind goSession.AssetKind, asset goSession.MediaAsset) (string, error) {
	const op = "media.minio.Upload"

	if asset.Body == nil {
		return "", fmt.Errorf("%s: empty body", op)
	}

	key := objectKey(kind, principalID, uuid.NewString(), asset)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, asset.Body, asset.Size, mclient.PutObjectOptions{
		ContentType: asset.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.base + "/" + key, nil
}

// normalizeEndpoint strips a URL scheme and reports whether TLS is wanted.
func normalizeEndpoint(endpoint string) (string, bool) {
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Host, u.Scheme == "https"
	}
	return endpoint, secure
}

func objectKey(kind goSession.AssetKind, principalID, name string, asset goSession.MediaAsset) string {
	return path.Join(string(kind), principalID, name+extension(asset))
}

// extension prefers the declared content type and falls back to the
// uploaded file name.
func extension(asset goSession.MediaAsset) string {
	switch strings.ToLower(asset.ContentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	ext := strings.ToLower(path.Ext(asset.Filename))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
