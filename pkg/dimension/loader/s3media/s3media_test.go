package s3media_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-dimension/pkg/dimension/loader/s3media"
)

func TestNewRequiresBucket(t *testing.T) {
	_, err := s3media.New(s3media.Config{}, nil)
	assert.Error(t, err)
}

func TestLoadPresignsURLs(t *testing.T) {
	l, err := s3media.New(s3media.Config{
		Region:          "us-east-1",
		Bucket:          "media-bucket",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
		PresignDuration: 600,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "media/42", l.ObjectKey("42"))

	loaded, err := l.Load(context.Background(), []string{"42", "43"}, "en")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	media := loaded["42"].(*s3media.Media)
	assert.Equal(t, "42", media.ID)
	assert.Contains(t, media.URL, "http://localhost:9000/media-bucket/media/42")
	assert.Contains(t, media.URL, "X-Amz-Signature=")
	assert.Contains(t, media.URL, "X-Amz-Expires=600")
	assert.Equal(t, media.URL, media.GetURL())
}
