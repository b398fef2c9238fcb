package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader mirrors composites to an S3 bucket.
type S3Uploader struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader

	bucket string
	prefix string
}

// NewS3Uploader loads the shared AWS configuration, using profile when set.
func NewS3Uploader(ctx context.Context, bucket, prefix, profile string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, errors.New("no s3 bucket provided")
	}

	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	ctxCfg, cancelCfg := context.WithTimeout(ctx, 3*time.Second)
	cfg, err := config.LoadDefaultConfig(ctxCfg, opts...)
	cancelCfg()
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config, %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Uploader{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

func (u *S3Uploader) objectKey(key string) string {
	if u.prefix == "" {
		return key
	}
	return path.Join(u.prefix, key)
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	if _, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(u.objectKey(key)),
		Body:        body,
		ContentType: aws.String(contentType),
	}); err != nil {
		return fmt.Errorf("unable to upload object to s3, %s, %w", key, err)
	}
	return nil
}

func (u *S3Uploader) Delete(ctx context.Context, key string) error {
	if _, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.objectKey(key)),
	}); err != nil {
		return fmt.Errorf("unable to delete object from s3, %s, %w", key, err)
	}
	return nil
}

func (u *S3Uploader) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.objectKey(key)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("unable to presign object, %s, %w", key, err)
	}
	return req.URL, nil
}
