package main

import (
	"context"

	"retrain-pipeline/internal/config"
	"retrain-pipeline/internal/logger"
	"retrain-pipeline/internal/metrics"
	"retrain-pipeline/internal/model"
	"retrain-pipeline/internal/pipeline"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

type lambdaHandler func(ctx context.Context, ev model.Event) (model.Event, error)

// 하나의 바이너리를 6개 Lambda 함수로 배포하고 HANDLER 로 step 을 고른다.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init(cfg)

	if err := cfg.Validate(cfg.Handler); err != nil {
		zlog.Fatal().Err(err).Str("step", cfg.Handler).Msg("invalid configuration")
	}

	m := metrics.New()
	handlers, err := pipeline.NewFromAWS(context.Background(), cfg, m)
	if err != nil {
		zlog.Fatal().Err(err).Msg("handler init failed")
	}
	fn, err := newLambdaHandler(cfg.Handler, handlers, m)
	if err != nil {
		zlog.Fatal().Err(err).Msg("handler lookup failed")
	}

	lambda.Start(fn)
}

// newLambdaHandler 는 step 을 고르고, 호출마다 metrics 를 로그로 남기는 wrapper 를 만든다.
func newLambdaHandler(step string, handlers *pipeline.Handlers, m *metrics.Metrics) (lambdaHandler, error) {
	if step == "" {
		return nil, errors.New("HANDLER is not set")
	}
	fn, err := handlers.Lookup(step)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, ev model.Event) (model.Event, error) {
		out, err := fn(ctx, ev)

		// warm container 에서는 카운터가 누적된다.
		log := zlog.Info().Str("step", step).Str("metrics", m.String())
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			log = log.Str("request_id", lc.AwsRequestID)
		}
		log.Msg("invocation finished")

		return out, err
	}, nil
}
