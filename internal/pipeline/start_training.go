package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"retrain-pipeline/internal/images"
	"retrain-pipeline/internal/mlservice"
	"retrain-pipeline/internal/model"
	"retrain-pipeline/internal/naming"
)

// 학습 job 고정값.
// trainingMaxRuntime 은 멈추지 않는 job 에 대한 상한이다.
const (
	trainingInstanceCount = 1
	trainingVolumeSizeGB  = 50
	trainingMaxRuntime    = 24 * time.Hour

	predictorType = "regressor"
	miniBatchSize = "100"
)

// startTraining 은 check_data 가 만든 매니페스트로 training job 을 제출한다.
func (h *Handlers) startTraining(ctx context.Context, ev model.Event) (model.Event, error) {
	name, err := naming.JobName(ev.Endpoint, ev.Time)
	if err != nil {
		return ev, err
	}
	image, err := h.deps.Images.Lookup(images.Algorithm, h.cfg.AWSRegion)
	if err != nil {
		return ev, err
	}

	spec := mlservice.TrainingJobSpec{
		Name:          name,
		Image:         image,
		RoleARN:       h.cfg.SageMakerRole,
		ManifestURI:   ev.TrainManifestURI,
		OutputPath:    ev.S3OutputPath,
		InstanceType:  h.cfg.TrainingInstanceType,
		InstanceCount: trainingInstanceCount,
		VolumeSizeGB:  trainingVolumeSizeGB,
		MaxRuntime:    trainingMaxRuntime,
		HyperParameters: map[string]string{
			"feature_dim":     strconv.Itoa(h.cfg.FeatureDim),
			"predictor_type":  predictorType,
			"mini_batch_size": miniBatchSize,
		},
	}
	if err := h.deps.ML.StartTrainingJob(ctx, spec); err != nil {
		return ev, err
	}
	atomic.AddInt64(&h.metrics.TrainingJobsStartedTotal, 1)

	ev.Name = name
	ev.Container = image
	ev.Stage = model.StageTraining
	ev.Status = model.StatusInProgress
	ev.Message = fmt.Sprintf("Starting training job %q", name)
	return ev, nil
}
