// internal/store/s3.go
package store

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// Presence 는 object 존재 확인 결과이다.
//
// "확인된 부재(Absent)" 와 "판단 불가(Indeterminate)" 를 구분한다.
// 권한 오류나 일시 장애를 부재로 처리하면 학습 데이터가 조용히 빠지기 때문에
// 호출자가 두 경우를 다르게 다룰 수 있어야 한다.
type Presence int

const (
	Absent Presence = iota
	Present
	Indeterminate
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "indeterminate"
	}
}

// s3API 는 S3Store 가 사용하는 S3 client 메서드 집합이다. 테스트에서는 fake 로 대체한다.
type s3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store 는 하나의 버킷에 대한 object 조회/저장을 담당한다.
// 모든 호출은 1회 시도이며 호출마다 timeout 이 적용된다. 재시도는 하지 않는다.
type S3Store struct {
	client  s3API
	bucket  string
	timeout time.Duration
}

// NewS3Store 는 AWS 설정으로부터 S3 client 를 만든다.
func NewS3Store(awsCfg aws.Config, bucket string, timeout time.Duration) *S3Store {
	return newS3Store(s3.NewFromConfig(awsCfg), bucket, timeout)
}

func newS3Store(client s3API, bucket string, timeout time.Duration) *S3Store {
	return &S3Store{client: client, bucket: bucket, timeout: timeout}
}

// Exists 는 HeadObject 로 key 존재 여부를 확인한다.
// Indeterminate 인 경우에만 원인 에러를 함께 반환한다.
func (s *S3Store) Exists(ctx context.Context, key string) (Presence, error) {
	ctx2, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.HeadObject(ctx2, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return Present, nil
	}
	if isObjectNotFound(err) {
		return Absent, nil
	}
	return Indeterminate, errors.Wrapf(err, "head s3://%s/%s", s.bucket, key)
}

// Put 은 body 로 object 를 덮어쓴다.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	ctx2, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.PutObject(ctx2, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "put s3://%s/%s", s.bucket, key)
	}
	return nil
}

func (s *S3Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// isObjectNotFound
//
// HeadObject 는 body 가 없으므로 404 가 types.NotFound 로 온다.
// 호환 스토리지(MinIO 등)에서는 NoSuchKey 코드로 오기도 한다.
func isObjectNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
