package pipeline

import (
	"context"
	"fmt"

	"retrain-pipeline/internal/mlservice"
	"retrain-pipeline/internal/model"
	"retrain-pipeline/internal/naming"

	"github.com/pkg/errors"
)

// getStatus
//
// stage 에 따라 training job 또는 endpoint 상태를 한 번 조회해 이벤트에 기록한다.
// polling 반복(Wait → get_status → Choice)은 state machine 이 담당한다.
func (h *Handlers) getStatus(ctx context.Context, ev model.Event) (model.Event, error) {
	switch ev.Stage {
	case model.StageTraining:
		return h.trainingStatus(ctx, ev)
	case model.StageDeployment:
		return h.deploymentStatus(ctx, ev)
	default:
		return ev, errors.Errorf("unknown stage %q", ev.Stage)
	}
}

func (h *Handlers) trainingStatus(ctx context.Context, ev model.Event) (model.Event, error) {
	job, err := h.deps.ML.DescribeTrainingJob(ctx, ev.Name)
	if err != nil {
		return ev, err
	}

	switch job.Status {
	case mlservice.TrainingCompleted:
		outputPath := job.OutputPath
		if outputPath == "" {
			outputPath = ev.S3OutputPath
		}
		ev.ModelDataURL = naming.ModelDataURL(outputPath, ev.Name)
		ev.Message = fmt.Sprintf("Training job %q complete. Model data uploaded to %q", ev.Name, ev.ModelDataURL)
	case mlservice.TrainingFailed:
		ev.Message = fmt.Sprintf("Training job %q failed. %s", ev.Name, job.FailureReason)
	case mlservice.TrainingStopped:
		ev.Message = fmt.Sprintf("Training job %q was stopped before completion.", ev.Name)
	}
	ev.Status = job.Status
	return ev, nil
}

func (h *Handlers) deploymentStatus(ctx context.Context, ev model.Event) (model.Event, error) {
	ep, err := h.deps.ML.DescribeEndpoint(ctx, ev.Endpoint)
	if err != nil {
		return ev, err
	}

	switch ep.Status {
	case mlservice.EndpointInService:
		ev.Message = fmt.Sprintf("Deployment completed for endpoint %q.", ev.Endpoint)
	case mlservice.EndpointFailed:
		ev.Message = fmt.Sprintf("Deployment failed for endpoint %q. %s", ev.Endpoint, ep.FailureReason)
	case mlservice.EndpointRollingBack:
		ev.Message = fmt.Sprintf("Deployment failed for endpoint %q, rolling back to previously deployed version.", ev.Endpoint)
	}
	ev.Status = ep.Status
	return ev, nil
}
