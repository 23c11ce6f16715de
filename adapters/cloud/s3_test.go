package cloud

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "datastudio/internal/errors"
)

type stubClient struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (s *stubClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.keys = append(s.keys, *params.Key)
	return &s3.PutObjectOutput{}, nil
}

func stubExporter(stub *stubClient) *Exporter {
	return &Exporter{newClient: func(ctx context.Context, creds Credentials) (objectStoreClient, error) {
		return stub, nil
	}}
}

func validCreds() Credentials {
	return Credentials{AccessKeyID: "AKIA", SecretAccessKey: "secret", Region: "us-east-1"}
}

func TestCredentialsValidate(t *testing.T) {
	assert.NoError(t, validCreds().Validate())

	for _, creds := range []Credentials{
		{SecretAccessKey: "s", Region: "r"},
		{AccessKeyID: "a", Region: "r"},
		{AccessKeyID: "a", SecretAccessKey: "s"},
	} {
		err := creds.Validate()
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	}
}

func TestDestinationObjectKey(t *testing.T) {
	assert.Equal(t, "out/file.csv", Destination{Prefix: "out"}.ObjectKey("file.csv"))
	assert.Equal(t, "out/file.csv", Destination{Prefix: "/out/"}.ObjectKey("file.csv"))
	assert.Equal(t, "file.csv", Destination{}.ObjectKey("file.csv"))
}

func TestUpload(t *testing.T) {
	stub := &stubClient{}
	exporter := stubExporter(stub)

	locations, err := exporter.Upload(context.Background(), validCreds(),
		Destination{Bucket: "my-bucket", Prefix: "analysis"},
		[]Object{
			{Key: "cleaned.csv", Body: []byte("a,b\n1,2\n"), ContentType: "text/csv"},
			{Key: "report.md", Body: []byte("# Report"), ContentType: "text/markdown"},
		})
	require.NoError(t, err)

	// Locations come back in input order regardless of upload order
	assert.Equal(t, []string{
		"s3://my-bucket/analysis/cleaned.csv",
		"s3://my-bucket/analysis/report.md",
	}, locations)
	assert.Len(t, stub.keys, 2)
}

func TestUploadFailureIsExportError(t *testing.T) {
	stub := &stubClient{err: errors.New("access denied")}
	exporter := stubExporter(stub)

	_, err := exporter.Upload(context.Background(), validCreds(),
		Destination{Bucket: "my-bucket"},
		[]Object{{Key: "cleaned.csv", Body: []byte("x")}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExportError, apperrors.GetCode(err))
}

func TestUploadRequiresBucket(t *testing.T) {
	exporter := stubExporter(&stubClient{})
	_, err := exporter.Upload(context.Background(), validCreds(), Destination{}, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestUploadRejectsIncompleteCredentials(t *testing.T) {
	exporter := stubExporter(&stubClient{})
	_, err := exporter.Upload(context.Background(), Credentials{Region: "us-east-1"},
		Destination{Bucket: "b"}, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
