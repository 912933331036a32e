package server

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"retrain-pipeline/internal/metrics"
	"retrain-pipeline/internal/model"
	"retrain-pipeline/internal/pool"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

// MaxBodySize 는 /invoke 요청 body 상한이다.
// Step Functions 의 state 간 payload 한도(256KB)와 같다.
const MaxBodySize int64 = 256 * 1024

const requestIDHeader = "X-Request-Id"

// Invoker 는 step 하나를 실행한다 (pipeline.Handlers).
type Invoker interface {
	Invoke(ctx context.Context, step string, ev model.Event) (model.Event, error)
}

type Handler struct {
	metrics *metrics.Metrics
	invoker Invoker
}

func NewHandler(m *metrics.Metrics, inv Invoker) *Handler {
	return &Handler{
		metrics: m,
		invoker: inv,
	}
}

type errorResponse struct {
	Error     string   `json:"error"`
	Step      string   `json:"step,omitempty"`
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// Router
//
// 엔드포인트:
//   - POST /invoke/{step} : 이벤트 JSON 을 받아 step 을 실행하고 결과 이벤트를 반환
//   - GET  /metrics       : 카운터 (text)
//   - GET  /health        : liveness
//
// 응답은 gzhttp 로 압축되고, 모든 요청에 request id 가 붙는다.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Post("/invoke/{step}", h.HandleInvoke)
	r.Get("/metrics", h.HandleMetrics)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return gzhttp.GzipHandler(r)
}

// HandleInvoke
//
// 공통 동작:
//  1. step 이름 확인 (모르는 step 은 404)
//  2. body 크기 제한(MaxBodySize), BodyPool 버퍼로 읽기
//  3. Event 디코딩 후 Invoker 호출
//  4. 결과 이벤트 또는 에러를 JSON 으로 응답
//
// 입력 검증 실패는 422, step 실행 실패는 500 으로 응답한다.
func (h *Handler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	step := chi.URLParam(r, "step")
	rid := r.Header.Get(requestIDHeader)
	atomic.AddInt64(&h.metrics.HTTPRequestsTotal, 1)

	if !knownStep(step) {
		atomic.AddInt64(&h.metrics.HTTPRequestsBadEventTotal, 1)
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown step", Step: step, RequestID: rid})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	buf := pool.GetBody()
	defer pool.PutBody(buf, MaxBodySize*2)

	if _, err := io.Copy(buf, r.Body); err != nil {
		atomic.AddInt64(&h.metrics.HTTPRequestsRejectedBodyTooLargeTotal, 1)
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large", Step: step, RequestID: rid})
		return
	}

	var ev model.Event
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		atomic.AddInt64(&h.metrics.HTTPRequestsBadEventTotal, 1)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid event: " + err.Error(), Step: step, RequestID: rid})
		return
	}

	out, err := h.invoker.Invoke(r.Context(), step, ev)
	if err != nil {
		var mf *model.MissingFieldError
		if errors.As(err, &mf) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Step: step, Fields: mf.Fields, RequestID: rid})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Step: step, RequestID: rid})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleMetrics 는 카운터 값들을 text 로 출력한다.
func (h *Handler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, h.metrics.String())
}

func knownStep(step string) bool {
	for _, s := range model.Steps {
		if s == step {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// requestID 는 호출자가 준 X-Request-Id 를 그대로 쓰고, 없으면 새로 만든다.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
			r.Header.Set(requestIDHeader, rid)
		}
		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r)
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zlog.Info().
			Str("request_id", r.Header.Get(requestIDHeader)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", clientIP(r)).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
