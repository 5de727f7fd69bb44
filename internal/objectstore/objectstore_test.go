package objectstore

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	ferrors "github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/retry"
)

type fakeUploader struct {
	calls   int
	errs    []error
	buckets []string
	keys    []string
	types   []string
}

func (f *fakeUploader) FPutObject(_ context.Context, bucket, object, _ string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.calls++
	f.buckets = append(f.buckets, bucket)
	f.keys = append(f.keys, object)
	f.types = append(f.types, opts.ContentType)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return minio.UploadInfo{}, err
		}
	}
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: 10}, nil
}

func fastPolicy(retries int) retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, retries)
}

func TestConfigValidate(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
	assert.Contains(t, err.Error(), "bucket")

	cfg := FromMirrorConfig(config.MirrorConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "exports", Prefix: "static"})
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "static", cfg.Prefix)
}

func TestNewMinIOClient(t *testing.T) {
	_, err := NewMinIOClient(Config{})
	require.Error(t, err)

	client, err := NewMinIOClient(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "exports", Region: "us-east-1"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestMirror_ObjectKey(t *testing.T) {
	assert.Equal(t, "static/site.zip", (&Mirror{prefix: "/static/"}).ObjectKey("site.zip"))
	assert.Equal(t, "site.zip", (&Mirror{}).ObjectKey("site.zip"))
}

func TestMirror_UploadRetriesTransientErrors(t *testing.T) {
	fu := &fakeUploader{errs: []error{errors.New("connection reset"), nil}}
	m := &Mirror{client: fu, bucket: "exports", prefix: "static", policy: fastPolicy(2)}

	key, err := m.Upload(context.Background(), "site.zip", "/tmp/site.zip")
	require.NoError(t, err)
	assert.Equal(t, "static/site.zip", key)
	assert.Equal(t, 2, fu.calls)
	assert.Equal(t, []string{ContentTypeZip, ContentTypeZip}, fu.types)
	assert.Equal(t, "exports", fu.buckets[0])
}

func TestMirror_UploadStopsOnPermanentErrors(t *testing.T) {
	denied := minio.ErrorResponse{StatusCode: http.StatusForbidden, Code: "AccessDenied", Message: "denied"}
	fu := &fakeUploader{errs: []error{denied, denied, denied}}
	m := &Mirror{client: fu, bucket: "exports", policy: fastPolicy(2)}

	_, err := m.Upload(context.Background(), "site.zip", "/tmp/site.zip")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
	assert.Equal(t, 1, fu.calls)
}

func TestMirror_UploadGivesUpAfterBudget(t *testing.T) {
	down := errors.New("down")
	fu := &fakeUploader{errs: []error{down, down, down, down}}
	m := &Mirror{client: fu, bucket: "exports", policy: fastPolicy(1)}

	_, err := m.Upload(context.Background(), "site.zip", "/tmp/site.zip")
	require.Error(t, err)
	assert.Equal(t, 2, fu.calls)
}
