package pipeline

import (
	"context"
	"sync/atomic"

	"retrain-pipeline/internal/model"
)

// notify 는 이벤트의 message 를 채팅 채널에 게시한다.
// 알림이 꺼져 있으면 아무것도 하지 않는다.
// 전송 실패는 에러로 반환되어 step 을 실패시킨다.
func (h *Handlers) notify(ctx context.Context, ev model.Event) (model.Event, error) {
	if !h.cfg.NotifyEnabled || h.deps.Notifier == nil {
		return ev, nil
	}
	if err := h.deps.Notifier.Post(ctx, ev.Message); err != nil {
		atomic.AddInt64(&h.metrics.NotificationErrorsTotal, 1)
		return ev, err
	}
	atomic.AddInt64(&h.metrics.NotificationsSentTotal, 1)
	return ev, nil
}
