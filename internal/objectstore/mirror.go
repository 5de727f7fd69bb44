package objectstore

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/retry"
)

// ContentTypeZip is the content type stored with every bundle.
const ContentTypeZip = "application/zip"

type uploader interface {
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Mirror uploads bundles under <prefix>/<name> in one bucket.
type Mirror struct {
	client uploader
	bucket string
	prefix string
	policy retry.Policy
}

// NewMirror wraps an existing client.
func NewMirror(client *minio.Client, cfg Config, policy retry.Policy) *Mirror {
	return &Mirror{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, policy: policy}
}

// ObjectKey returns the key a bundle named name is stored under.
func (m *Mirror) ObjectKey(name string) string {
	prefix := strings.Trim(m.prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Upload copies the file at filePath to the bucket, retrying transient
// failures per the policy, and returns the object key.
func (m *Mirror) Upload(ctx context.Context, name, filePath string) (string, error) {
	key := m.ObjectKey(name)
	var info minio.UploadInfo
	err := m.policy.Do(ctx, "mirror upload", isRetryable, func(ctx context.Context) error {
		var err error
		info, err = m.client.FPutObject(ctx, m.bucket, key, filePath, minio.PutObjectOptions{ContentType: ContentTypeZip})
		return err
	})
	if err != nil {
		return "", errors.NetworkError("failed to mirror bundle").
			WithContext("bucket", m.bucket).
			WithContext("key", key).
			WithContext("cause", err.Error()).
			Build()
	}
	slog.Info("Mirrored export bundle",
		logfields.ExportName(name),
		slog.String("bucket", m.bucket),
		slog.String("key", key),
		logfields.Bytes(info.Size))
	return key, nil
}

// isRetryable treats client errors other than timeouts and throttling as permanent.
func isRetryable(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode == 0:
		return true
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false
	default:
		return true
	}
}
