package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	headErr map[string]error
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	putErr  error
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	key := aws.ToString(in.Key)
	if err, ok := f.headErr[key]; ok {
		return nil, err
	}
	if _, ok := f.objects[key]; ok {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &s3types.NotFound{}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestExistsDistinguishesAbsentFromIndeterminate(t *testing.T) {
	f := &fakeS3{
		objects: map[string][]byte{"a.csv": []byte("x")},
		headErr: map[string]error{
			"denied.csv": &smithy.GenericAPIError{Code: "Forbidden", Message: "access denied"},
			"legacy.csv": &smithy.GenericAPIError{Code: "NoSuchKey"},
		},
	}
	s := newS3Store(f, "bucket", time.Second)
	ctx := context.Background()

	p, err := s.Exists(ctx, "a.csv")
	assert.NoError(t, err)
	assert.Equal(t, Present, p)

	p, err = s.Exists(ctx, "missing.csv")
	assert.NoError(t, err)
	assert.Equal(t, Absent, p)

	p, err = s.Exists(ctx, "legacy.csv")
	assert.NoError(t, err)
	assert.Equal(t, Absent, p)

	p, err = s.Exists(ctx, "denied.csv")
	assert.Error(t, err)
	assert.Equal(t, Indeterminate, p)
}

func TestPut(t *testing.T) {
	f := &fakeS3{objects: map[string][]byte{}}
	s := newS3Store(f, "bucket", 0)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k/manifest", []byte(`[]`), "text/plain"))
	require.Len(t, f.puts, 1)
	assert.Equal(t, "bucket", aws.ToString(f.puts[0].Bucket))
	assert.Equal(t, "text/plain", aws.ToString(f.puts[0].ContentType))
	assert.Equal(t, int64(2), aws.ToInt64(f.puts[0].ContentLength))
	assert.Equal(t, `[]`, string(f.objects["k/manifest"]))
}

func TestPutPropagatesError(t *testing.T) {
	cause := errors.New("boom")
	s := newS3Store(&fakeS3{objects: map[string][]byte{}, putErr: cause}, "bucket", 0)

	err := s.Put(context.Background(), "k", nil, "text/plain")
	assert.ErrorIs(t, err, cause)
}

type fakeSSM struct {
	params map[string]string
	getErr error
	puts   int
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.params[aws.ToString(in.Name)]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(v)}}, nil
}

func (f *fakeSSM) PutParameter(_ context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.puts++
	if !aws.ToBool(in.Overwrite) || in.Type != ssmtypes.ParameterTypeString {
		return nil, errors.New("unexpected put options")
	}
	f.params[aws.ToString(in.Name)] = aws.ToString(in.Value)
	return &ssm.PutParameterOutput{}, nil
}

func TestParamStore(t *testing.T) {
	f := &fakeSSM{params: map[string]string{}}
	p := newParamStore(f, time.Second)
	ctx := context.Background()

	_, found, err := p.Get(ctx, "/models/demand/train/latest")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, p.Put(ctx, "/models/demand/train/latest", "2024-01-03"))
	v, found, err := p.Get(ctx, "/models/demand/train/latest")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2024-01-03", v)
}

func TestParamStoreGetError(t *testing.T) {
	cause := &smithy.GenericAPIError{Code: "ThrottlingException"}
	p := newParamStore(&fakeSSM{getErr: cause}, 0)

	_, _, err := p.Get(context.Background(), "/x")
	var apiErr smithy.APIError
	assert.ErrorAs(t, err, &apiErr)
}
