package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
)

type fakeS3 struct {
	putIn    *s3.PutObjectInput
	putBody  []byte
	getOut   *s3.GetObjectOutput
	getErr   error
	delIn    *s3.DeleteObjectInput
	delErr   error
	pages    []*s3.ListObjectsV2Output
	listErr  error
	listCall int
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putIn = in
	b, _ := io.ReadAll(in.Body)
	f.putBody = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return f.getOut, f.getErr
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delIn = in
	return &s3.DeleteObjectOutput{}, f.delErr
}

func (f *fakeS3) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.pages[f.listCall]
	f.listCall++
	return out, nil
}

func TestNewS3Store_UsesSeamsAndEndpoint(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		var lo config.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		return aws.Config{Region: lo.Region}, nil
	}

	var got s3.Options
	fake := &fakeS3{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&got)
		}
		return fake
	}

	st, err := NewS3Store(context.Background(), Options{
		Endpoint:  "http://localhost:9000",
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "files",
		Region:    "eu-central-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "files", st.bucket)
	assert.Same(t, fake, st.client)
	assert.Equal(t, "http://localhost:9000", aws.ToString(got.BaseEndpoint))
	assert.True(t, got.UsePathStyle)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Store(context.Background(), Options{Region: "us-east-1"})
	require.Error(t, err)
}

func TestS3Store_PutDefaultsContentType(t *testing.T) {
	f := &fakeS3{}
	st := &S3Store{client: f, bucket: "b"}

	require.NoError(t, st.Put(context.Background(), "u1/a.txt", []byte("hello"), ""))
	assert.Equal(t, "u1/a.txt", aws.ToString(f.putIn.Key))
	assert.Equal(t, "b", aws.ToString(f.putIn.Bucket))
	assert.Equal(t, DefaultContentType, aws.ToString(f.putIn.ContentType))
	assert.Equal(t, int64(5), aws.ToInt64(f.putIn.ContentLength))
	assert.Equal(t, []byte("hello"), f.putBody)
}

func TestS3Store_Get(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f := &fakeS3{getOut: &s3.GetObjectOutput{
		Body:         io.NopCloser(bytes.NewReader([]byte("data"))),
		ContentType:  aws.String("text/plain"),
		LastModified: &ts,
	}}
	st := &S3Store{client: f, bucket: "b"}

	blob, err := st.Get(context.Background(), "u1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), blob.Data)
	assert.Equal(t, "text/plain", blob.ContentType)
	assert.Equal(t, int64(4), blob.Size)
	assert.Equal(t, ts, blob.LastModified)
}

func TestS3Store_GetNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"typed no such key", &types.NoSuchKey{}},
		{"generic not found", &smithy.GenericAPIError{Code: "NotFound"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &S3Store{client: &fakeS3{getErr: tt.err}, bucket: "b"}
			_, err := st.Get(context.Background(), "u1/x")
			assert.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}

func TestS3Store_GetUpstreamError(t *testing.T) {
	st := &S3Store{client: &fakeS3{getErr: &smithy.GenericAPIError{Code: "AccessDenied"}}, bucket: "b"}
	_, err := st.Get(context.Background(), "u1/x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Store_ListPaginates(t *testing.T) {
	f := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("u1/a"), Size: aws.Int64(1)}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next"),
		},
		{
			Contents: []types.Object{{Key: aws.String("u1/b"), Size: aws.Int64(2)}},
		},
	}}
	st := &S3Store{client: f, bucket: "b"}

	objs, err := st.List(context.Background(), "u1/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "u1/a", objs[0].Key)
	assert.Equal(t, int64(2), objs[1].Size)
	assert.Equal(t, 2, f.listCall)
}

func TestS3Store_ListError(t *testing.T) {
	st := &S3Store{client: &fakeS3{listErr: errors.New("boom")}, bucket: "b"}
	_, err := st.List(context.Background(), "u1/")
	require.Error(t, err)
}

func TestS3Store_Delete(t *testing.T) {
	f := &fakeS3{}
	st := &S3Store{client: f, bucket: "b"}
	require.NoError(t, st.Delete(context.Background(), "u1/a"))
	assert.Equal(t, "u1/a", aws.ToString(f.delIn.Key))
}
