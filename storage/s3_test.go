package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	currency "github.com/malusev998/currency-converter"
)

type s3ClientMock struct {
	mock.Mock
}

func (m *s3ClientMock) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *s3ClientMock) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *s3ClientMock) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *s3ClientMock) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func TestS3Storage_List(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	client := &s3ClientMock{}
	st := newS3Storage(client, "bucket")
	modified := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.UTC)

	client.On("ListObjectsV2", ctx, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Bucket) == "bucket" && aws.ToString(in.Prefix) == currency.ConversionsPrefix
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("conversions/b.json"), Size: aws.Int64(140), LastModified: aws.Time(modified)},
			{Key: aws.String("conversions/a.json"), Size: aws.Int64(120), LastModified: aws.Time(modified)},
		},
	}, nil).Once()

	objects, err := st.List(ctx, currency.ConversionsPrefix)
	assert.Nil(err)
	assert.Len(objects, 2)
	assert.Equal("conversions/a.json", objects[0].Key)
	assert.Equal(int64(140), objects[1].Size)
	assert.True(objects[0].LastModified.Equal(modified))
	client.AssertExpectations(t)

	client.On("ListObjectsV2", ctx, mock.Anything).Return(nil, errors.New("no credentials")).Once()

	_, err = st.List(ctx, currency.ConversionsPrefix)
	assert.True(errors.Is(err, currency.ErrStoreUnreachable))
}

func TestS3Storage_Get(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		assert := require.New(t)
		client := &s3ClientMock{}
		st := newS3Storage(client, "bucket")

		client.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Key) == "conversions/a.json"
		})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(`{"a":1}`))}, nil)

		body, err := st.Get(ctx, "conversions/a.json")
		assert.Nil(err)
		assert.Equal(`{"a":1}`, string(body))
		client.AssertExpectations(t)
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		assert := require.New(t)
		client := &s3ClientMock{}
		st := newS3Storage(client, "bucket")

		client.On("GetObject", ctx, mock.Anything).Return(nil, &types.NoSuchKey{})

		_, err := st.Get(ctx, "conversions/none.json")
		assert.True(errors.Is(err, currency.ErrObjectNotFound))
	})
}

func TestS3Storage_PutDelete(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	client := &s3ClientMock{}
	st := newS3Storage(client, "bucket")

	client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Key) == "conversions/a.json" &&
			aws.ToString(in.ContentType) == "application/json" &&
			string(body) == `{"a":1}`
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	client.On("DeleteObject", ctx, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "conversions/a.json"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	client.On("DeleteObject", ctx, mock.Anything).Return(nil, errors.New("access denied")).Once()

	assert.Nil(st.Put(ctx, "conversions/a.json", []byte(`{"a":1}`)))
	assert.Nil(st.Delete(ctx, "conversions/a.json"))
	assert.True(errors.Is(st.Delete(ctx, "conversions/a.json"), currency.ErrStoreUnreachable))
	assert.Equal("s3", st.GetStorageProviderName())
	assert.Nil(st.Close())
	client.AssertExpectations(t)
}

func TestNewS3Storage_BucketRequired(t *testing.T) {
	assert := require.New(t)

	_, err := NewS3Storage(S3Config{})
	assert.True(errors.Is(err, ErrBucketRequired))
}
