package pipeline

import (
	"context"

	"retrain-pipeline/internal/awsclient"
	"retrain-pipeline/internal/config"
	"retrain-pipeline/internal/images"
	"retrain-pipeline/internal/metrics"
	"retrain-pipeline/internal/mlservice"
	"retrain-pipeline/internal/notify"
	"retrain-pipeline/internal/store"
)

// NewFromAWS 는 실제 AWS 클라이언트와 Slack 클라이언트로 Handlers 를 구성한다.
// cmd/lambda, cmd/server 가 공통으로 사용한다.
func NewFromAWS(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*Handlers, error) {
	awsCfg, err := awsclient.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	table, err := images.Load(cfg.ContainerImagesFile)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Objects: store.NewS3Store(awsCfg, cfg.Bucket, cfg.CallTimeout),
		Params:  store.NewParamStore(awsCfg, cfg.CallTimeout),
		ML:      mlservice.New(awsCfg, cfg.CallTimeout),
		Images:  table,
	}
	if cfg.NotifyEnabled {
		deps.Notifier = notify.NewSlack(cfg.SlackAPIURL, cfg.SlackToken, cfg.SlackChannel, cfg.CallTimeout)
	}
	return New(cfg, m, deps), nil
}
