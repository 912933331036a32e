// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"retrain-pipeline/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init
//
// 프로세스 시작 시 한 번만 호출되는 로거 초기화 함수.
//
//   - LOG_PRETTY=true : 사람이 읽기 쉬운 ConsoleWriter (로컬 개발)
//   - 그 외           : JSON 한 줄 로그 (CloudWatch Logs 검색용)
//
// 모든 로그에 service / instance 필드가 붙는다.
// LOG_SAMPLE_N > 1 이면 Debug/Info 는 N건 중 1건만 남기고, Warn/Error 는 전부 남긴다.
//
// 사용 예:
//
//	logger.Init(cfg)
//	log.Info().Str("step", "check_data").Msg("manifest uploaded")
func Init(cfg config.Config) {
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil {
		level = l
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	} else {
		w = os.Stdout
	}

	base := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Logger()

	logger := base
	if cfg.LogSampleN > 1 {
		logger = base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},
		})
	}

	zlog.Logger = logger

	// aws-lambda-go 등 표준 log 패키지를 쓰는 라이브러리 출력도 zerolog 로 보낸다.
	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)
}

// Step 은 step 필드가 붙은 하위 로거를 만든다.
func Step(step string) zerolog.Logger {
	return zlog.With().Str("step", step).Logger()
}
