// internal/store/ssm.go
package store

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/pkg/errors"
)

type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, in *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// ParamStore 는 SSM Parameter Store 의 단일 String 파라미터 읽기/쓰기를 담당한다.
// watermark 저장소로 사용된다.
type ParamStore struct {
	client  ssmAPI
	timeout time.Duration
}

func NewParamStore(awsCfg aws.Config, timeout time.Duration) *ParamStore {
	return newParamStore(ssm.NewFromConfig(awsCfg), timeout)
}

func newParamStore(client ssmAPI, timeout time.Duration) *ParamStore {
	return &ParamStore{client: client, timeout: timeout}
}

// Get 은 파라미터 값을 읽는다.
// 파라미터가 아직 없으면(최초 학습 전) found=false, err=nil 을 반환한다.
func (p *ParamStore) Get(ctx context.Context, name string) (value string, found bool, err error) {
	ctx2, cancel := p.withTimeout(ctx)
	defer cancel()

	out, err := p.client.GetParameter(ctx2, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var nf *types.ParameterNotFound
		if errors.As(err, &nf) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "get parameter %s", name)
	}
	if out.Parameter == nil {
		return "", false, nil
	}
	return aws.ToString(out.Parameter.Value), true, nil
}

// Put 은 파라미터를 무조건 덮어쓴다 (last writer wins).
// 같은 model 에 대해 cycle 이 동시에 실행되지 않으므로 버전 검사는 하지 않는다.
func (p *ParamStore) Put(ctx context.Context, name, value string) error {
	ctx2, cancel := p.withTimeout(ctx)
	defer cancel()

	_, err := p.client.PutParameter(ctx2, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return errors.Wrapf(err, "put parameter %s", name)
	}
	return nil
}

func (p *ParamStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
