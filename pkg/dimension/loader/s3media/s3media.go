// Package s3media loads media resources as presigned S3 download URLs.
package s3media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/tendant/content-dimension/pkg/dimension"
)

// Config holds the S3 media loader configuration
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket holding the media files
	AccessKeyID     string // AWS access key ID (optional if using IAM roles)
	SecretAccessKey string // AWS secret access key (optional if using IAM roles)
	Endpoint        string // Custom endpoint for S3-compatible services (optional)
	UsePathStyle    bool   // Use path-style addressing (default: false)
	PresignDuration int    // Duration in seconds for presigned URLs (default: 3600)
	KeyPrefix       string // Object key prefix; media id "1" maps to "<prefix>1" (default: "media/")
	VerifyExists    bool   // HEAD every object and omit missing media
}

// Media is a loaded media resource.
type Media struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// GetURL returns the presigned download URL.
func (m *Media) GetURL() string { return m.URL }

// Loader implements dimension.ResourceLoader for media ids.
type Loader struct {
	client          *s3.Client
	presignClient   *s3.PresignClient
	bucket          string
	keyPrefix       string
	presignDuration time.Duration
	verify          bool
	logger          *slog.Logger
}

// New creates a media loader from config
func New(config Config, logger *slog.Logger) (*Loader, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.PresignDuration == 0 {
		config.PresignDuration = 3600
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "media/"
	}
	if logger == nil {
		logger = slog.Default()
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}
	client := s3.NewFromConfig(awsCfg, s3Options...)

	return &Loader{
		client:          client,
		presignClient:   s3.NewPresignClient(client),
		bucket:          config.Bucket,
		keyPrefix:       config.KeyPrefix,
		presignDuration: time.Duration(config.PresignDuration) * time.Second,
		verify:          config.VerifyExists,
		logger:          logger,
	}, nil
}

// ObjectKey returns the object key of a media id.
func (l *Loader) ObjectKey(id string) string {
	return l.keyPrefix + id
}

// Load implements dimension.ResourceLoader. The locale does not affect media
// files.
func (l *Loader) Load(ctx context.Context, ids []string, locale string) (map[string]any, error) {
	out := make(map[string]any, len(ids))
	for _, id := range ids {
		media, err := l.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if media != nil {
			out[id] = media
		}
	}
	return out, nil
}

func (l *Loader) load(ctx context.Context, id string) (*Media, error) {
	key := l.ObjectKey(id)
	media := &Media{ID: id}

	if l.verify {
		head, err := l.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				l.logger.DebugContext(ctx, "media object missing", "id", id, "key", key)
				return nil, nil
			}
			return nil, fmt.Errorf("failed to head media %s: %w", id, err)
		}
		media.ContentType = aws.ToString(head.ContentType)
		media.Size = aws.ToInt64(head.ContentLength)
	}

	result, err := l.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = l.presignDuration
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL for media %s: %w", id, err)
	}

	media.URL = result.URL
	media.ExpiresAt = time.Now().Add(l.presignDuration)
	return media, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var _ dimension.ResourceLoader = (*Loader)(nil)
