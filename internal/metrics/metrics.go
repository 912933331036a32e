package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics 는 handler 실행 상태를 나타내는 카운터 모음이다.
// Lambda 에서는 invocation 종료 시 로그로, HTTP 어댑터에서는 /metrics 로 노출된다.
type Metrics struct {
	// ======================
	// 호출 레벨 지표
	// ======================

	// InvocationsTotal
	// - step 진입 횟수. 입력 검증 실패도 포함한다.
	InvocationsTotal int64

	// InvocationErrorsTotal
	// - 에러로 끝난 step 수. orchestrator 가 재시도/중단을 결정한다.
	InvocationErrorsTotal int64

	// SkippedNoNewDataTotal
	// - no_new_data 로 인해 아무 작업 없이 통과시킨 step 수 (check_data 포함).
	SkippedNoNewDataTotal int64

	// ======================
	// S3 / 매니페스트
	// ======================

	// ObjectProbesTotal
	// - HeadObject 존재 확인 호출 수.
	ObjectProbesTotal int64

	// ObjectProbesIndeterminateTotal
	// - 404 가 아닌 에러로 존재 여부를 판단하지 못한 probe 수.
	// - 0 이 아니면 권한 문제나 일시 장애로 학습 데이터가 누락되었을 수 있다.
	ObjectProbesIndeterminateTotal int64

	// ManifestsWrittenTotal
	ManifestsWrittenTotal int64

	// ======================
	// SageMaker
	// ======================

	TrainingJobsStartedTotal int64
	EndpointsCreatedTotal    int64
	EndpointsUpdatedTotal    int64

	// ======================
	// Parameter Store / 알림
	// ======================

	WatermarkUpdatesTotal   int64
	NotificationsSentTotal  int64
	NotificationErrorsTotal int64

	// ======================
	// HTTP 어댑터 (cmd/server)
	// ======================

	// HTTPRequestsTotal
	// - /invoke/{step} 요청 수.
	HTTPRequestsTotal int64

	// HTTPRequestsRejectedBodyTooLargeTotal
	// - body 크기 제한 초과로 거부된 요청 수.
	HTTPRequestsRejectedBodyTooLargeTotal int64

	// HTTPRequestsBadEventTotal
	// - JSON 디코딩 실패, 알 수 없는 step 으로 거부된 요청 수.
	HTTPRequestsBadEventTotal int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(768)

	fmt.Fprintf(&sb, "invocations_total=%d\n", atomic.LoadInt64(&m.InvocationsTotal))
	fmt.Fprintf(&sb, "invocation_errors_total=%d\n", atomic.LoadInt64(&m.InvocationErrorsTotal))
	fmt.Fprintf(&sb, "skipped_no_new_data_total=%d\n", atomic.LoadInt64(&m.SkippedNoNewDataTotal))

	fmt.Fprintf(&sb, "object_probes_total=%d\n", atomic.LoadInt64(&m.ObjectProbesTotal))
	fmt.Fprintf(&sb, "object_probes_indeterminate_total=%d\n", atomic.LoadInt64(&m.ObjectProbesIndeterminateTotal))
	fmt.Fprintf(&sb, "manifests_written_total=%d\n", atomic.LoadInt64(&m.ManifestsWrittenTotal))

	fmt.Fprintf(&sb, "training_jobs_started_total=%d\n", atomic.LoadInt64(&m.TrainingJobsStartedTotal))
	fmt.Fprintf(&sb, "endpoints_created_total=%d\n", atomic.LoadInt64(&m.EndpointsCreatedTotal))
	fmt.Fprintf(&sb, "endpoints_updated_total=%d\n", atomic.LoadInt64(&m.EndpointsUpdatedTotal))

	fmt.Fprintf(&sb, "watermark_updates_total=%d\n", atomic.LoadInt64(&m.WatermarkUpdatesTotal))
	fmt.Fprintf(&sb, "notifications_sent_total=%d\n", atomic.LoadInt64(&m.NotificationsSentTotal))
	fmt.Fprintf(&sb, "notification_errors_total=%d\n", atomic.LoadInt64(&m.NotificationErrorsTotal))

	fmt.Fprintf(&sb, "http_requests_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsTotal))
	fmt.Fprintf(&sb, "http_requests_rejected_body_too_large_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsRejectedBodyTooLargeTotal))
	fmt.Fprintf(&sb, "http_requests_bad_event_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsBadEventTotal))

	return sb.String()
}
