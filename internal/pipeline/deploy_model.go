package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"retrain-pipeline/internal/logger"
	"retrain-pipeline/internal/mlservice"
	"retrain-pipeline/internal/model"
)

const (
	prodVariantName      = "prod"
	prodVariantInstances = 1
)

// deployModel
//
// 학습 결과로 model, endpoint config 를 만들고 endpoint 에 연결한다.
//   - endpoint 가 없으면 새로 생성 (최초 배포)
//   - 있으면 새 config 로 update (SageMaker blue/green 교체)
//
// 존재 여부를 판단할 수 없는 경우(권한, throttling 등)는 에러로 반환한다.
func (h *Handlers) deployModel(ctx context.Context, ev model.Event) (model.Event, error) {
	log := logger.Step(model.StepDeployModel)

	if err := h.deps.ML.CreateModel(ctx, ev.Name, ev.Container, ev.ModelDataURL, h.cfg.ExecutionRole); err != nil {
		return ev, err
	}
	variant := mlservice.VariantSpec{
		Name:          prodVariantName,
		InstanceType:  h.cfg.InstanceType,
		InstanceCount: prodVariantInstances,
	}
	if err := h.deps.ML.CreateEndpointConfig(ctx, ev.Name, variant); err != nil {
		return ev, err
	}

	exists, err := h.deps.ML.EndpointExists(ctx, ev.Endpoint)
	if err != nil {
		return ev, err
	}
	if exists {
		log.Info().Str("endpoint", ev.Endpoint).Msg("existing endpoint found, updating to new config")
		if err := h.deps.ML.UpdateEndpoint(ctx, ev.Endpoint, ev.Name); err != nil {
			return ev, err
		}
		atomic.AddInt64(&h.metrics.EndpointsUpdatedTotal, 1)
	} else {
		log.Info().Str("endpoint", ev.Endpoint).Msg("no endpoint for this model yet, creating")
		if err := h.deps.ML.CreateEndpoint(ctx, ev.Endpoint, ev.Name); err != nil {
			return ev, err
		}
		atomic.AddInt64(&h.metrics.EndpointsCreatedTotal, 1)
	}

	ev.Stage = model.StageDeployment
	ev.Status = model.StatusCreating
	ev.Message = fmt.Sprintf("Started deploying model %q to endpoint %q", ev.Name, ev.Endpoint)
	return ev, nil
}
