package storage

import (
	"context"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	cfg "github.com/maheshrc27/omni-publisher/configs"
)

type minioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type MinioStore struct {
	client     minioClient
	bucket     string
	publicBase string
}

var _ BlobStore = (*MinioStore)(nil)

func NewMinioStore(ctx context.Context, c cfg.Minio, publicBase string) (*MinioStore, error) {
	log.Println("initialising minio client...")
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, mapMinioErr(err)
	}
	return newMinioStore(ctx, client, c.BucketName, publicBase)
}

func newMinioStore(ctx context.Context, client minioClient, bucket, publicBase string) (*MinioStore, error) {
	ok, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, mapMinioErr(err)
	}
	if !ok {
		log.Printf("bucket %q does not exist, creating it...", bucket)
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, mapMinioErr(err)
		}
	}
	return &MinioStore{client: client, bucket: bucket, publicBase: publicBase}, nil
}

func (s *MinioStore) Fetch(ctx context.Context, key, dst string) error {
	log.Printf("downloading %q from bucket %q...", key, s.bucket)
	return mapMinioErr(s.client.FGetObject(ctx, s.bucket, key, dst, minio.GetObjectOptions{}))
}

func (s *MinioStore) Store(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	log.Printf("saving %q into bucket %q...", key, s.bucket)
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	return mapMinioErr(err)
}

func (s *MinioStore) URL(ctx context.Context, key string) (string, error) {
	if s.publicBase != "" {
		return publicURL(s.publicBase, key), nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignExpiry, url.Values{})
	if err != nil {
		return "", mapMinioErr(err)
	}
	return u.String(), nil
}

func mapMinioErr(err error) error {
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound
	}
	return err
}
