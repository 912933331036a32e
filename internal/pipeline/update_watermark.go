package pipeline

import (
	"context"
	"sync/atomic"

	"retrain-pipeline/internal/dataset"
	"retrain-pipeline/internal/model"

	"github.com/pkg/errors"
)

// updateWatermark 는 이번 cycle 에서 소비한 최신 데이터 날짜를 저장한다.
// 다음 cycle 의 check_data 는 이 값보다 새로운 파일이 있을 때만 학습을 시작한다.
func (h *Handlers) updateWatermark(ctx context.Context, ev model.Event) (model.Event, error) {
	if !dataset.ValidDate(ev.LatestDataUpload) {
		return ev, errors.Errorf("latest_data_upload %q is not a YYYY-MM-DD date", ev.LatestDataUpload)
	}
	if err := h.deps.Params.Put(ctx, ev.LastTrainParam, ev.LatestDataUpload); err != nil {
		return ev, err
	}
	atomic.AddInt64(&h.metrics.WatermarkUpdatesTotal, 1)

	ev.Status = model.StatusParamsUpdated
	return ev, nil
}
