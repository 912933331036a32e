// internal/awsclient/awsclient.go
package awsclient

import (
	"context"

	"retrain-pipeline/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/pkg/errors"
)

// Load 는 모든 서비스 client 가 공유할 AWS SDK 설정을 만든다.
//
// SDK 레벨 retry 는 끈다 (RetryMaxAttempts=1, 즉 재시도 없음).
// 재시도/backoff 는 Step Functions 의 Retry 정책이 전담한다.
func Load(ctx context.Context, cfg config.Config) (aws.Config, error) {
	awsCfg, err := awsCfgLib.LoadDefaultConfig(
		ctx,
		awsCfgLib.WithRegion(cfg.AWSRegion),
		awsCfgLib.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "load AWS config")
	}
	return awsCfg, nil
}
