// Package images stores uploaded product, profile and design images in an
// S3-compatible bucket and returns their public URLs.
package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/google/uuid"
)

// Folders images are grouped under.
const (
	FolderProducts = "products"
	FolderProfiles = "profiles"
	FolderDesigns  = "designs"
)

// Store uploads an image and returns the URL it can be fetched from.
type Store interface {
	Upload(ctx context.Context, folder string, img *models.ImageUpload) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Options describe the bucket and how to reach it.
type Options struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Bucket    string
	PublicURL string
}

// S3Store is the Store backed by S3 or MinIO.
type S3Store struct {
	client    putObjectAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Store builds the S3 client once; it is safe for concurrent use.
func NewS3Store(ctx context.Context, o Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(opt *s3.Options) {
		if o.Endpoint != "" {
			opt.BaseEndpoint = aws.String(o.Endpoint)
		}
		opt.UsePathStyle = true
	})

	return &S3Store{
		client:    client,
		bucket:    o.Bucket,
		publicURL: strings.TrimRight(o.PublicURL, "/"),
		now:       time.Now,
	}, nil
}

// StorageKey returns a fresh object key under folder, keeping the
// extension of filename.
func StorageKey(folder, filename string, at time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d/%02d/%02d/%s%s", folder, at.Year(), at.Month(), at.Day(), uuid.New(), ext)
}

// Upload reads img fully, checks it is an image and stores it. Rejected
// content yields common.ErrValidation, storage failures common.ErrUpstream.
func (s *S3Store) Upload(ctx context.Context, folder string, img *models.ImageUpload) (string, error) {
	if img == nil || img.Body == nil {
		return "", fmt.Errorf("%w: image is required", common.ErrValidation)
	}

	data, err := io.ReadAll(img.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading upload: %v", common.ErrValidation, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: image is empty", common.ErrValidation)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s is not an image", common.ErrValidation, contentType)
	}

	key := StorageKey(folder, img.Filename, s.now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 put %s: %v", common.ErrUpstream, key, err)
	}

	return s.publicURL + "/" + s.bucket + "/" + key, nil
}
