package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"foodshare-go/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrNotConfigured      = errors.New("uploads not configured")
	ErrInvalidContentType = errors.New("content type must be an image")
	ErrInvalidFilename    = errors.New("filename is required")
)

const maxFilenameLength = 80

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type Upload struct {
	UploadURL string    `json:"upload_url"`
	Key       string    `json:"key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type S3Storage struct {
	bucket        string
	publicBaseURL string
	ttl           time.Duration
	presign       func(ctx context.Context, input *s3.PutObjectInput, ttl time.Duration) (string, error)
	newID         func() string
	now           func() time.Time
}

// NewS3Storage returns nil storage when no bucket is configured; callers treat that as uploads disabled.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	presignClient := s3.NewPresignClient(client)

	publicBaseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	ttl := cfg.UploadURLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Storage{
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL,
		ttl:           ttl,
		presign: func(ctx context.Context, input *s3.PutObjectInput, ttl time.Duration) (string, error) {
			req, err := presignClient.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
		newID: uuid.NewString,
		now:   time.Now,
	}, nil
}

// PresignDishImage returns a presigned PUT for a new dish image owned by userID.
func (s *S3Storage) PresignDishImage(ctx context.Context, userID, filename, contentType string) (*Upload, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidContentType
	}

	name := SanitizeFilename(filename)
	if name == "" {
		return nil, ErrInvalidFilename
	}

	key := path.Join("dishes", userID, s.newID()+"_"+name)
	url, err := s.presign(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}

	return &Upload{
		UploadURL: url,
		Key:       key,
		PublicURL: s.publicBaseURL + "/" + key,
		ExpiresAt: s.now().Add(s.ttl),
	}, nil
}

func SanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > maxFilenameLength {
		name = name[len(name)-maxFilenameLength:]
	}
	return name
}
