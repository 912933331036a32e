// internal/pipeline/handlers.go
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"retrain-pipeline/internal/config"
	"retrain-pipeline/internal/images"
	"retrain-pipeline/internal/logger"
	"retrain-pipeline/internal/metrics"
	"retrain-pipeline/internal/mlservice"
	"retrain-pipeline/internal/model"
	"retrain-pipeline/internal/store"

	"github.com/pkg/errors"
)

// ObjectStore 는 학습 데이터 버킷에 대한 접근이다 (store.S3Store).
type ObjectStore interface {
	Exists(ctx context.Context, key string) (store.Presence, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ParamStore 는 watermark 저장소이다 (store.ParamStore).
type ParamStore interface {
	Get(ctx context.Context, name string) (value string, found bool, err error)
	Put(ctx context.Context, name, value string) error
}

// MLService 는 SageMaker 학습/호스팅 API 이다 (mlservice.Client).
type MLService interface {
	StartTrainingJob(ctx context.Context, spec mlservice.TrainingJobSpec) error
	DescribeTrainingJob(ctx context.Context, name string) (mlservice.TrainingJob, error)
	CreateModel(ctx context.Context, name, image, modelDataURL, roleARN string) error
	CreateEndpointConfig(ctx context.Context, name string, variant mlservice.VariantSpec) error
	DescribeEndpoint(ctx context.Context, name string) (mlservice.Endpoint, error)
	EndpointExists(ctx context.Context, name string) (bool, error)
	CreateEndpoint(ctx context.Context, endpoint, configName string) error
	UpdateEndpoint(ctx context.Context, endpoint, configName string) error
}

// Notifier 는 채팅 채널 알림이다 (notify.Slack).
type Notifier interface {
	Post(ctx context.Context, text string) error
}

// HandlerFunc 는 Step Functions 의 Task 하나에 대응한다.
// 입력 이벤트를 받아 필드를 덧붙인 새 이벤트를 반환한다.
type HandlerFunc func(ctx context.Context, ev model.Event) (model.Event, error)

// Deps 는 Handlers 가 호출하는 외부 협력자들이다.
type Deps struct {
	Objects  ObjectStore
	Params   ParamStore
	ML       MLService
	Notifier Notifier
	Images   images.Table
}

// Handlers 는 6개 step 구현을 묶는다.
// 상태를 갖지 않으며, 한 번에 하나의 step 만 호출된다는 전제로 동작한다.
type Handlers struct {
	cfg     config.Config
	metrics *metrics.Metrics
	deps    Deps
	now     func() time.Time
}

func New(cfg config.Config, m *metrics.Metrics, deps Deps) *Handlers {
	return &Handlers{
		cfg:     cfg,
		metrics: m,
		deps:    deps,
		now:     time.Now,
	}
}

// Lookup 은 step 이름에 해당하는 HandlerFunc 를 반환한다.
func (h *Handlers) Lookup(step string) (HandlerFunc, error) {
	if _, ok := h.steps()[step]; !ok {
		return nil, errors.Errorf("unknown step %q", step)
	}
	return func(ctx context.Context, ev model.Event) (model.Event, error) {
		return h.Invoke(ctx, step, ev)
	}, nil
}

func (h *Handlers) steps() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		model.StepCheckData:       h.checkData,
		model.StepStartTraining:   h.startTraining,
		model.StepGetStatus:       h.getStatus,
		model.StepDeployModel:     h.deployModel,
		model.StepUpdateWatermark: h.updateWatermark,
		model.StepNotify:          h.notify,
	}
}

// Invoke
//
// 모든 step 공통 처리:
//  1. 입력 이벤트 검증 (step 별 필수 필드, version)
//  2. no_new_data 이벤트는 check_data / notify 외 step 에서 그대로 통과
//  3. step 실행, 결과 이벤트 version 기록
//  4. metrics / 로그
//
// 에러는 로그를 남긴 뒤 그대로 반환하며, 재시도 여부는 orchestrator 가 결정한다.
func (h *Handlers) Invoke(ctx context.Context, step string, ev model.Event) (model.Event, error) {
	fn, ok := h.steps()[step]
	if !ok {
		return ev, errors.Errorf("unknown step %q", step)
	}

	log := logger.Step(step)
	start := time.Now()
	atomic.AddInt64(&h.metrics.InvocationsTotal, 1)

	if err := ev.Validate(step); err != nil {
		atomic.AddInt64(&h.metrics.InvocationErrorsTotal, 1)
		log.Error().Err(err).Msg("invalid input event")
		return ev, err
	}

	if ev.NoNewData && step != model.StepCheckData && step != model.StepNotify {
		atomic.AddInt64(&h.metrics.SkippedNoNewDataTotal, 1)
		log.Info().Msg("no new data in this cycle, passing event through")
		return ev, nil
	}

	out, err := fn(ctx, ev)
	if err != nil {
		atomic.AddInt64(&h.metrics.InvocationErrorsTotal, 1)
		log.Error().
			Err(err).
			Str("name", ev.Name).
			Str("endpoint", ev.Endpoint).
			Dur("elapsed", time.Since(start)).
			Msg("step failed")
		return ev, err
	}

	out.Version = model.EventVersion
	log.Info().
		Str("stage", out.Stage).
		Str("status", out.Status).
		Bool("no_new_data", out.NoNewData).
		Str("message", out.Message).
		Dur("elapsed", time.Since(start)).
		Msg("step completed")
	return out, nil
}
