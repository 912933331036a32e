package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"retrain-pipeline/internal/config"
	"retrain-pipeline/internal/logger"
	"retrain-pipeline/internal/metrics"
	"retrain-pipeline/internal/model"
	"retrain-pipeline/internal/pipeline"
	"retrain-pipeline/internal/server"

	zlog "github.com/rs/zerolog/log"
)

func main() {

	// ====================================================================
	// CPU 설정
	// ====================================================================
	//
	// 컨테이너(Fargate 등)에서는 vCPU 수에 맞춰 GOMAXPROCS 를 지정한다.
	// 지정이 없으면 1. step 실행은 대부분 AWS API 대기 시간이다.
	// ====================================================================
	if v := os.Getenv("GOMAXPROCS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			runtime.GOMAXPROCS(n)
		}
	} else {
		runtime.GOMAXPROCS(1)
	}

	// ====================================================================
	// Config, Logger, Metrics 초기화
	// ====================================================================
	//
	// HTTP 어댑터는 어떤 step 이든 호출될 수 있으므로
	// 모든 step 의 필수 설정을 시작 시점에 검사한다.
	// ====================================================================
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init(cfg)

	for _, step := range model.Steps {
		if err := cfg.Validate(step); err != nil {
			zlog.Fatal().Err(err).Str("step", step).Msg("invalid configuration")
		}
	}

	m := metrics.New()

	// ====================================================================
	// Handlers 생성 (S3 / SSM / SageMaker / Slack 클라이언트 포함)
	// ====================================================================
	ctx := context.Background()
	handlers, err := pipeline.NewFromAWS(ctx, cfg, m)
	if err != nil {
		zlog.Fatal().Err(err).Msg("handler init failed")
	}

	// ====================================================================
	// HTTP 서버 설정
	// ====================================================================
	//
	// WriteTimeout 은 step 하나가 끝날 때까지 기다릴 수 있어야 한다.
	// check_data 는 INTERVAL 개 probe 를 수행하므로 넉넉하게 잡는다.
	// ====================================================================
	h := server.NewHandler(m, handlers)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      h.Router(),
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// ====================================================================
	// Graceful Shutdown
	// ====================================================================
	//
	// SIGTERM 수신 시 새 요청을 받지 않고 실행 중인 step 이 끝나기를 기다린다.
	// ====================================================================
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		sig := <-sigCh
		zlog.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zlog.Error().Err(err).Msg("http shutdown")
		}
	}()

	zlog.Info().Str("addr", cfg.HTTPAddr).Msg("pipeline server listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal().Err(err).Msg("http server terminated")
	}

	zlog.Info().Str("metrics", m.String()).Msg("shutdown complete")
}
