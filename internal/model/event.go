// internal/model/event.go
package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// EventVersion 은 이 바이너리가 생성/해석하는 Event 스키마 버전이다.
// event_version 필드가 없는(0) 이벤트는 최초 스케줄 이벤트로 보고 1 로 올린다.
//
// EventBridge 스케줄 이벤트의 "version" 은 envelope 의 문자열 필드("0")이며
// 이 값과 무관하다. 키를 공유하지 않으므로 envelope 을 그대로 디코딩할 수 있다.
const EventVersion = 1

// stage 값
const (
	StageTraining   = "Training"
	StageDeployment = "Deployment"
)

// handler 가 직접 기록하는 status 값.
// 그 외 값(Completed, InService 등)은 SageMaker 가 보고한 상태를 그대로 쓴다.
const (
	StatusInProgress    = "InProgress"
	StatusCreating      = "Creating"
	StatusParamsUpdated = "ParamsUpdated"
)

// Event
// ------------------------------------------------------------
// Step Functions 가 각 step 사이로 넘겨주는 레코드.
// check_data → start_training → get_status → deploy_model → get_status
// → update_watermark → notify 순으로 필드가 누적된다.
//
// JSON 필드명은 state machine 정의(Choice 조건 등)가 참조하므로 바꾸지 않는다.
type Event struct {
	Version int `json:"event_version"`

	Time     string `json:"time,omitempty"`     // 스케줄 이벤트 시각 (RFC3339)
	Endpoint string `json:"endpoint,omitempty"` // endpoint 이름 (= model prefix)

	TrainManifestURI string `json:"train_manifest_uri,omitempty"`
	S3OutputPath     string `json:"s3_output_path,omitempty"`
	LastTrainParam   string `json:"last_train_param,omitempty"`   // watermark 파라미터 이름
	LatestDataUpload string `json:"latest_data_upload,omitempty"` // 이번 cycle 에서 소비한 최신 날짜
	NoNewData        bool   `json:"no_new_data"`

	Name      string `json:"name,omitempty"`      // training job / model / endpoint config 이름
	Container string `json:"container,omitempty"` // 알고리즘 이미지 URI

	Stage   string `json:"stage,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`

	ModelDataURL string `json:"model_data_url,omitempty"`
}

// MissingFieldError 는 step 입력에 필요한 필드가 비어 있을 때 반환된다.
type MissingFieldError struct {
	Step   string
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("event for step %s is missing required fields: %s", e.Step, strings.Join(e.Fields, ", "))
}

// Validate 는 step 경계에서 입력 이벤트를 검사한다.
//   - 지원하지 않는 (더 새로운) version 은 거부
//   - no_new_data 이벤트는 이후 step 에서 그대로 통과하므로 필드 검사를 생략
func (e Event) Validate(step string) error {
	if e.Version > EventVersion {
		return errors.Errorf("event version %d is newer than supported version %d", e.Version, EventVersion)
	}
	if e.NoNewData && step != StepCheckData && step != StepNotify {
		return nil
	}

	var missing []string
	need := func(field, v string) {
		if v == "" {
			missing = append(missing, field)
		}
	}

	switch step {
	case StepCheckData:
		need("time", e.Time)
	case StepStartTraining:
		need("time", e.Time)
		need("endpoint", e.Endpoint)
		need("train_manifest_uri", e.TrainManifestURI)
		need("s3_output_path", e.S3OutputPath)
	case StepGetStatus:
		need("stage", e.Stage)
		switch e.Stage {
		case StageTraining:
			need("name", e.Name)
		case StageDeployment:
			need("endpoint", e.Endpoint)
		}
	case StepDeployModel:
		need("name", e.Name)
		need("endpoint", e.Endpoint)
		need("model_data_url", e.ModelDataURL)
		need("container", e.Container)
	case StepUpdateWatermark:
		need("name", e.Name)
		need("latest_data_upload", e.LatestDataUpload)
		need("last_train_param", e.LastTrainParam)
	case StepNotify:
		need("message", e.Message)
	default:
		return errors.Errorf("unknown step %q", step)
	}

	if len(missing) > 0 {
		return &MissingFieldError{Step: step, Fields: missing}
	}
	return nil
}
