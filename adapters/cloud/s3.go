package cloud

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	apperrors "datastudio/internal/errors"
)

// Credentials are supplied by the user at export time and never persisted
type Credentials struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Region          string `json:"region"`
}

// Destination identifies where the artifacts land
type Destination struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

// Object is a single artifact to upload
type Object struct {
	Key         string
	Body        []byte
	ContentType string
}

// objectStoreClient is the slice of the S3 API the exporter uses
type objectStoreClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Exporter uploads artifacts to S3-compatible object storage. Failures are
// surfaced as EXPORT_ERROR; there is no retry logic and local artifacts are
// unaffected by the outcome.
type Exporter struct {
	newClient func(ctx context.Context, creds Credentials) (objectStoreClient, error)
}

// NewExporter creates an exporter backed by the AWS SDK
func NewExporter() *Exporter {
	return &Exporter{newClient: newS3Client}
}

func newS3Client(ctx context.Context, creds Credentials) (objectStoreClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(creds.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// Validate checks that the export request is complete
func (c Credentials) Validate() error {
	if c.AccessKeyID == "" || c.SecretAccessKey == "" || c.Region == "" {
		return apperrors.InvalidInput("access key, secret and region are all required")
	}
	return nil
}

// ObjectKey joins the prefix and filename into an object key
func (d Destination) ObjectKey(filename string) string {
	prefix := strings.Trim(d.Prefix, "/")
	if prefix == "" {
		return filename
	}
	return prefix + "/" + filename
}

// Upload stores every object in the destination bucket and returns their
// s3:// locations in input order. Any failure aborts the batch.
func (e *Exporter) Upload(ctx context.Context, creds Credentials, dest Destination, objects []Object) ([]string, error) {
	if dest.Bucket == "" {
		return nil, apperrors.InvalidInput("bucket is required")
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	client, err := e.newClient(ctx, creds)
	if err != nil {
		return nil, apperrors.ExportError(err, "failed to build object store client")
	}

	locations := make([]string, len(objects))
	g, gctx := errgroup.WithContext(ctx)
	for i, obj := range objects {
		g.Go(func() error {
			key := dest.ObjectKey(obj.Key)
			log.Printf("[cloud] Uploading s3://%s/%s (%d bytes)", dest.Bucket, key, len(obj.Body))
			_, err := client.PutObject(gctx, &s3.PutObjectInput{
				Bucket:      aws.String(dest.Bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(obj.Body),
				ContentType: aws.String(obj.ContentType),
			})
			if err != nil {
				return apperrors.ExportError(err, fmt.Sprintf("failed to upload %s", key))
			}
			locations[i] = fmt.Sprintf("s3://%s/%s", dest.Bucket, key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return locations, nil
}
