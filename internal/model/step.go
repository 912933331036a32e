package model

// 각 step 식별자.
// Lambda 의 HANDLER 환경변수, HTTP 어댑터의 /invoke/{step} 경로에서 동일하게 사용한다.
const (
	StepCheckData       = "check_data"
	StepStartTraining   = "start_training"
	StepGetStatus       = "get_status"
	StepDeployModel     = "deploy_model"
	StepUpdateWatermark = "update_watermark"
	StepNotify          = "notify"
)

// Steps 는 파이프라인 실행 순서대로 정렬된 step 목록이다.
var Steps = []string{
	StepCheckData,
	StepStartTraining,
	StepGetStatus,
	StepDeployModel,
	StepUpdateWatermark,
	StepNotify,
}
