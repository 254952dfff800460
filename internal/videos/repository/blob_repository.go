package repository

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/internal/videos"
)

type blobRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
	partURLExpiry time.Duration
}

func NewBlobRepository(client *s3.Client, preSignClient *s3.PresignClient, partURLExpiry time.Duration) videos.BlobRepository {
	return &blobRepository{
		client:        client,
		preSignClient: preSignClient,
		partURLExpiry: partURLExpiry,
	}
}

func (b *blobRepository) CreateMultipartUpload(ctx context.Context, bucket, key string) (string, error) {
	res, err := b.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create multipart upload")
	}
	if res.UploadId == nil {
		return "", errors.New("multipart upload created without an upload id")
	}
	return *res.UploadId, nil
}

func (b *blobRepository) GetPartUploadURLs(ctx context.Context, bucket, key, uploadID string, parts int) ([]models.PartUploadURL, error) {
	urls := make([]models.PartUploadURL, 0, parts)
	for i := 1; i <= parts; i++ {
		partNumber := int32(i)
		req, err := b.preSignClient.PresignUploadPart(
			ctx,
			&s3.UploadPartInput{
				Bucket:     &bucket,
				Key:        &key,
				UploadId:   &uploadID,
				PartNumber: &partNumber,
			},
			s3.WithPresignExpires(b.partURLExpiry),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to presign part %d", i)
		}
		urls = append(urls, models.PartUploadURL{
			SignedURL:  req.URL,
			PartNumber: partNumber,
		})
	}
	return urls, nil
}

func (b *blobRepository) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []models.CompletedPart) error {
	completed := make([]types.CompletedPart, 0, len(parts))
	for i := range parts {
		completed = append(completed, types.CompletedPart{
			ETag:       &parts[i].ETag,
			PartNumber: &parts[i].PartNumber,
		})
	}
	_, err := b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          &bucket,
		Key:             &key,
		UploadId:        &uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return errors.Wrap(err, "failed to complete multipart upload")
	}
	return nil
}

func (b *blobRepository) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	_, err := b.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   &bucket,
		Key:      &key,
		UploadId: &uploadID,
	})
	if err != nil {
		return errors.Wrap(err, "failed to abort multipart upload")
	}
	return nil
}

func (b *blobRepository) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	res, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to download object")
	}
	var size int64
	if res.ContentLength != nil {
		size = *res.ContentLength
	}
	return res.Body, size, nil
}

func (b *blobRepository) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          body,
		ContentLength: &size,
		ContentType:   &contentType,
	})
	if err != nil {
		return errors.Wrap(err, "failed to upload object")
	}
	return nil
}

func (b *blobRepository) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return errors.Wrap(err, "failed to remove object")
	}
	return nil
}

func (b *blobRepository) GetSignedReadURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := b.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to presign get object")
	}
	return req.URL, nil
}
