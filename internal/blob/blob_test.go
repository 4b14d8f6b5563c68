package blob

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	data := []byte("plan")
	require.NoError(t, m.Put(ctx, "greenpark/documents/a.pdf", "application/pdf", data))
	data[0] = 'X'

	got, ct, err := m.Get(ctx, "greenpark/documents/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "plan", string(got))
	assert.Equal(t, "application/pdf", ct)

	require.NoError(t, m.Delete(ctx, "greenpark/documents/a.pdf"))
	_, _, err = m.Get(ctx, "greenpark/documents/a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.PresignURL(ctx, "x", time.Minute)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestOpen(t *testing.T) {
	ctx := t.Context()

	s, err := Open(ctx, &config.Config{BlobDriver: DriverInline})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(ctx, &config.Config{BlobDriver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(ctx, &config.Config{BlobDriver: DriverS3})
	assert.Error(t, err, "bucket is required")

	_, err = Open(ctx, &config.Config{BlobDriver: "ftp"})
	assert.Error(t, err)
}

func TestS3PresignURL(t *testing.T) {
	s := newS3FromConfig(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
	}, S3Config{Bucket: "breeza-docs", Endpoint: "https://minio.local", PathStyle: true})

	url, err := s.PresignURL(t.Context(), "greenpark/documents/plan.pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "https://minio.local/breeza-docs/greenpark/documents/plan.pdf")
	assert.Contains(t, url, "X-Amz-Expires=300")
}
