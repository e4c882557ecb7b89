package storage

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
)

// s3Driver implements the same key contract against an object bucket, for
// deployments where session artifacts must outlive a single node.
type s3Driver struct {
	client *s3.Client
	bucket string
	ttl    time.Duration
	logger logger.Logger
}

func NewS3Driver(client *s3.Client, bucket string, ttl time.Duration, log logger.Logger) Driver {
	return &s3Driver{client: client, bucket: bucket, ttl: ttl, logger: log}
}

func (d *s3Driver) Base() string {
	return "s3://" + d.bucket
}

func (d *s3Driver) PathFor(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "\x00") {
		return "", ErrInvalidKey
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

func (d *s3Driver) Save(key string, data []byte) (string, error) {
	objectKey, err := d.PathFor(key)
	if err != nil {
		return "", err
	}
	_, err = d.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: &d.bucket,
		Key:    &objectKey,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", errors.Wrap(err, "storage.s3Driver.Save.PutObject")
	}
	return objectKey, nil
}

func (d *s3Driver) Exists(key string) bool {
	objectKey, err := d.PathFor(key)
	if err != nil {
		return false
	}
	_, err = d.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: &d.bucket,
		Key:    &objectKey,
	})
	return err == nil
}

func (d *s3Driver) Delete(key string) error {
	objectKey, err := d.PathFor(key)
	if err != nil {
		return err
	}
	_, err = d.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: &d.bucket,
		Key:    &objectKey,
	})
	if err != nil {
		return errors.Wrap(err, "storage.s3Driver.Delete.DeleteObject")
	}
	return nil
}

func (d *s3Driver) Sweep() (int, error) {
	ctx := context.Background()
	now := time.Now()
	removed := 0

	paginator := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{
		Bucket: &d.bucket,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return removed, errors.Wrap(err, "storage.s3Driver.Sweep.ListObjectsV2")
		}
		for _, object := range page.Contents {
			if object.LastModified == nil || now.Sub(*object.LastModified) <= d.ttl {
				continue
			}
			_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: &d.bucket,
				Key:    object.Key,
			})
			if err != nil {
				d.logger.Warnf("sweep: failed to remove %s: %v", *object.Key, err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}
