// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"retrain-pipeline/internal/model"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const defaultSlackAPIURL = "https://slack.com/api/chat.postMessage"

// Config
//
// 프로세스 시작 시 한 번 로드되어 각 handler 에 명시적으로 전달되는 설정.
// 전역 변수로 환경변수를 읽지 않는다. 로드 이후에는 변경하지 않는다(read-only).
type Config struct {

	// ---------------------------
	// AWS 공통
	// ---------------------------

	AWSRegion   string        // AWS 리전 (컨테이너 이미지 lookup 에도 사용)
	CallTimeout time.Duration // 외부 서비스 호출 1회당 timeout

	// ---------------------------
	// 데이터 / 매니페스트 (check_data)
	// ---------------------------

	ModelPrefix      string // 학습 job, 모델, endpoint 이름의 prefix
	IntervalDays     int    // 신규 데이터를 찾을 날짜 구간 (일)
	Bucket           string // 학습 데이터, 매니페스트, 모델 아티팩트 버킷
	StrictProbes     bool   // 존재 여부를 판단할 수 없는 probe 를 에러로 취급할지
	ProbeConcurrency int    // HeadObject 동시 호출 수

	// ---------------------------
	// 학습 (start_training)
	// ---------------------------

	FeatureDim           int
	TrainingInstanceType string
	SageMakerRole        string
	ContainerImagesFile  string // 비어 있으면 내장 이미지 테이블 사용

	// ---------------------------
	// 배포 (deploy_model)
	// ---------------------------

	ExecutionRole string
	InstanceType  string

	// ---------------------------
	// 알림 (notify)
	// ---------------------------

	NotifyEnabled bool
	SlackToken    string
	SlackChannel  string
	SlackAPIURL   string

	// ---------------------------
	// 실행 환경 / 로깅
	// ---------------------------

	Handler     string // cmd/lambda 에서 실행할 step
	HTTPAddr    string // cmd/server bind 주소
	ServiceName string
	InstanceID  string
	LogLevel    string
	LogPretty   bool
	LogSampleN  uint32
}

// Load
//
// 환경 변수로부터 Config 를 만든다.
// ENV_FILE 이 지정되어 있으면 먼저 godotenv 로 읽어 들인다 (로컬 개발용).
// 형식이 잘못된 값은 즉시 에러를 반환한다.
// 필수 값 누락 여부는 step 마다 다르므로 Validate 에서 검사한다.
func Load() (Config, error) {
	if f := os.Getenv("ENV_FILE"); f != "" {
		if err := godotenv.Load(f); err != nil {
			return Config{}, errors.Wrapf(err, "loading env file %s", f)
		}
	}

	var p parser
	cfg := Config{
		AWSRegion:   os.Getenv("AWS_REGION"),
		CallTimeout: p.duration("AWS_CALL_TIMEOUT", 10*time.Second),

		ModelPrefix:      os.Getenv("MODEL_PREFIX"),
		IntervalDays:     p.int("INTERVAL", 0),
		Bucket:           os.Getenv("BUCKET"),
		StrictProbes:     p.bool("STRICT_PROBES", false),
		ProbeConcurrency: p.int("PROBE_CONCURRENCY", 4),

		FeatureDim:           p.int("FEATURE_DIM", 0),
		TrainingInstanceType: os.Getenv("TRAINING_INSTANCE_TYPE"),
		SageMakerRole:        os.Getenv("SAGEMAKER_ROLE"),
		ContainerImagesFile:  os.Getenv("CONTAINER_IMAGES_FILE"),

		ExecutionRole: os.Getenv("EXECUTION_ROLE"),
		InstanceType:  os.Getenv("INSTANCE_TYPE"),

		// 기존 배포의 ENABLED 키도 그대로 받아준다.
		NotifyEnabled: p.bool("NOTIFY_ENABLED", p.bool("ENABLED", false)),
		SlackToken:    os.Getenv("ACCESS_TOKEN"),
		SlackChannel:  os.Getenv("CHANNEL"),
		SlackAPIURL:   getEnv("SLACK_API_URL", defaultSlackAPIURL),

		Handler:     os.Getenv("HANDLER"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		ServiceName: getEnv("SERVICE_NAME", "retrain-pipeline"),
		InstanceID:  fallbackInstanceID(),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   p.bool("LOG_PRETTY", false),
		LogSampleN:  uint32(p.int("LOG_SAMPLE_N", 0)),
	}

	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, nil
}

// Validate 는 주어진 step 실행에 필요한 값이 모두 채워져 있는지 검사한다.
// 누락된 키는 한 번에 모아서 보고한다.
func (c Config) Validate(step string) error {
	if step == "" {
		return errors.New("no step selected: HANDLER is not set")
	}

	var missing []string
	need := func(key string, ok bool) {
		if !ok {
			missing = append(missing, key)
		}
	}

	need("AWS_REGION", c.AWSRegion != "")

	switch step {
	case model.StepCheckData:
		need("MODEL_PREFIX", c.ModelPrefix != "")
		need("INTERVAL", c.IntervalDays > 0)
		need("BUCKET", c.Bucket != "")
		need("PROBE_CONCURRENCY", c.ProbeConcurrency > 0)
	case model.StepStartTraining:
		need("FEATURE_DIM", c.FeatureDim > 0)
		need("TRAINING_INSTANCE_TYPE", c.TrainingInstanceType != "")
		need("SAGEMAKER_ROLE", c.SageMakerRole != "")
	case model.StepGetStatus, model.StepUpdateWatermark:
	case model.StepDeployModel:
		need("EXECUTION_ROLE", c.ExecutionRole != "")
		need("INSTANCE_TYPE", c.InstanceType != "")
	case model.StepNotify:
		if c.NotifyEnabled {
			need("ACCESS_TOKEN", c.SlackToken != "")
			need("CHANNEL", c.SlackChannel != "")
		}
	default:
		return errors.Errorf("unknown step %q", step)
	}

	if len(missing) > 0 {
		return errors.Errorf("step %s: missing or invalid env: %s", step, strings.Join(missing, ", "))
	}
	return nil
}

// parser
//
// int / bool / duration 변환을 공통 처리한다.
// 첫 번째 변환 에러만 기억하고 이후 값은 기본값으로 채운다.
type parser struct {
	err error
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(errors.Wrapf(err, "invalid int env %s=%q", key, v))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(errors.Wrapf(err, "invalid bool env %s=%q", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(errors.Wrapf(err, "invalid duration env %s=%q", key, v))
		return def
	}
	return d
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// fallbackInstanceID
//
// 로그에 붙일 실행 인스턴스 식별자.
//   - Lambda: log stream 이름 (실행 환경마다 고유)
//   - 그 외: hostname
//   - fallback: 12자리 랜덤 hex
func fallbackInstanceID() string {
	if s := os.Getenv("AWS_LAMBDA_LOG_STREAM_NAME"); s != "" {
		return s
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
