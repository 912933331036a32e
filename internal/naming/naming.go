// internal/naming/naming.go
package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// naming.go
// ------------------------------------------------------------
// S3 경로 / Parameter Store 키 / SageMaker 리소스 이름 규칙.
// 모든 step 이 같은 규칙으로 이름을 만들어야 training job, model,
// endpoint config 이름이 서로 일치한다.
//
// S3 구조:
//
//	s3://<bucket>/data/<model>/train/<YYYY-MM-DD>.csv   학습 데이터
//	s3://<bucket>/data/<model>/train/manifest           매니페스트
//	s3://<bucket>/models/<model>/<job>/output/model.tar.gz
//
// watermark:
//
//	/models/<model>/train/latest

// Layout 은 model prefix 와 bucket 으로부터 파생되는 위치들을 묶는다.
type Layout struct {
	Bucket      string
	ModelPrefix string
}

func (l Layout) TrainSetPrefix() string {
	return fmt.Sprintf("data/%s/train", l.ModelPrefix)
}

// TrainSetPath 는 매니페스트 prefix 헤더로 쓰이는 경로이며 '/' 로 끝난다.
func (l Layout) TrainSetPath() string {
	return fmt.Sprintf("s3://%s/%s/", l.Bucket, l.TrainSetPrefix())
}

// DataKey 는 학습 데이터 파일명의 object key 이다.
func (l Layout) DataKey(filename string) string {
	return l.TrainSetPrefix() + "/" + filename
}

func (l Layout) ManifestKey() string {
	return l.TrainSetPrefix() + "/manifest"
}

func (l Layout) ManifestURI() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.ManifestKey())
}

// OutputPath 는 학습 결과 아티팩트 경로이며 '/' 로 끝난다.
func (l Layout) OutputPath() string {
	return fmt.Sprintf("s3://%s/models/%s/", l.Bucket, l.ModelPrefix)
}

func (l Layout) WatermarkParam() string {
	return WatermarkParam(l.ModelPrefix)
}

// WatermarkParam 은 model 별 마지막 학습 데이터 날짜 파라미터 이름이다.
func WatermarkParam(modelPrefix string) string {
	return fmt.Sprintf("/models/%s/train/latest", modelPrefix)
}

// SageMaker 리소스 이름 규칙: 영숫자로 시작, 영숫자와 '-' 만, 최대 63자.
var resourceName = regexp.MustCompile(`^[a-zA-Z0-9](-*[a-zA-Z0-9]){0,62}$`)

// JobName 은 "<model>-<time>" 형태의 training job 이름을 만든다.
// 같은 이름이 model, endpoint config 에도 그대로 쓰인다.
// 이벤트 시각의 ':' 는 이름 규칙에 맞지 않으므로 '-' 로 바꾼다.
func JobName(modelPrefix, eventTime string) (string, error) {
	name := strings.ReplaceAll(modelPrefix+"-"+eventTime, ":", "-")
	if len(name) > 63 || !resourceName.MatchString(name) {
		return "", errors.Errorf("invalid SageMaker resource name %q", name)
	}
	return name, nil
}

// ModelDataURL 은 학습 job 이 남기는 모델 아티팩트 위치이다.
// SageMaker 는 항상 <output_path>/<job_name>/output/model.tar.gz 에 결과를 쓴다.
func ModelDataURL(outputPath, jobName string) string {
	return strings.TrimSuffix(outputPath, "/") + "/" + jobName + "/output/model.tar.gz"
}
