package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// S3Store implements a content store using Amazon S3 or compatible services.
// It supports both public read-only access and authenticated write access.
type S3Store struct {
	client         *s3.S3
	writeClient    *s3.S3
	bucketName     string
	prefix         string
	region         string
	endpoint       string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// NewS3Store creates a new S3 content store.
// If accessKey and secretKey are provided, the store will have write access.
// Otherwise, it will be read-only for publicly accessible objects.
func NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if accessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", accessKey, bucketName, prefix, region)
	}
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	baseCfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
		baseCfg.S3ForcePathStyle = aws.Bool(true)
	}

	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	readClient := s3.New(baseSess)

	hasWriteAccess := accessKey != "" && secretKey != ""
	writeClient := readClient
	if hasWriteAccess {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")

		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS write session: %w", err)
		}
		writeClient = s3.New(writeSess)
	} else {
		log.Warn("No S3 credentials provided - uploads may fail unless bucket is public writable")
	}

	return &S3Store{
		client:         readClient,
		writeClient:    writeClient,
		bucketName:     bucketName,
		prefix:         strings.Trim(prefix, "/"),
		region:         region,
		endpoint:       strings.TrimSuffix(endpoint, "/"),
		log:            log,
		locationURI:    uri,
		hasWriteAccess: hasWriteAccess,
	}, nil
}

// Put uploads data under its content hash with a public-read ACL.
func (b *S3Store) Put(ctx context.Context, data []byte) (string, error) {
	contentHash, err := interfaces.ComputeContentHash(data)
	if err != nil {
		return "", err
	}
	key := b.objectKey(contentHash)

	_, err = b.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		if !b.hasWriteAccess {
			return "", fmt.Errorf("failed to upload object to S3 (no write credentials provided): %w", err)
		}
		return "", fmt.Errorf("failed to upload object to S3: %w", err)
	}

	b.log.Debug("Stored content in S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.String("contentHash", contentHash))

	return contentHash, nil
}

// Fetch retrieves an object by content hash. Returns ErrContentNotFound if the object doesn't exist.
func (b *S3Store) Fetch(ctx context.Context, contentHash string) ([]byte, error) {
	start := time.Now()
	if _, err := interfaces.ParseContentHash(contentHash); err != nil {
		return nil, err
	}
	key := b.objectKey(contentHash)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			b.log.Debug("Content not found in S3",
				slog.String("bucket", b.bucketName),
				slog.String("key", key))
			return nil, interfaces.ErrContentNotFound
		}

		b.log.Error("Failed to get object from S3",
			slog.String("bucket", b.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if err := verifyContent(contentHash, data); err != nil {
		return nil, err
	}

	b.log.Debug("Fetched content from S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Resolve returns the public URL of the object.
func (b *S3Store) Resolve(contentHash string) string {
	key := b.objectKey(contentHash)
	if b.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucketName, b.region, key)
}

// Available checks if the bucket is accessible.
func (b *S3Store) Available(ctx context.Context) bool {
	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucketName),
	})
	if err != nil {
		b.log.Warn("S3 store unavailable",
			slog.String("bucket", b.bucketName),
			"err", err)
		return false
	}
	return true
}

func (b *S3Store) Name() string {
	return fmt.Sprintf("s3-%s", b.bucketName)
}

func (b *S3Store) LocationURI() string {
	return b.locationURI
}

func (b *S3Store) objectKey(contentHash string) string {
	if b.prefix == "" {
		return contentHash
	}
	return path.Join(b.prefix, contentHash)
}
