package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retrain-pipeline/internal/metrics"
	"retrain-pipeline/internal/model"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	step string
	in   model.Event
	out  model.Event
	err  error
}

func (f *fakeInvoker) Invoke(_ context.Context, step string, ev model.Event) (model.Event, error) {
	f.step = step
	f.in = ev
	return f.out, f.err
}

func newTestServer(inv Invoker) (*httptest.Server, *metrics.Metrics) {
	m := metrics.New()
	return httptest.NewServer(NewHandler(m, inv).Router()), m
}

func TestInvokeReturnsEvent(t *testing.T) {
	inv := &fakeInvoker{out: model.Event{Version: 1, Name: "foo-1", Status: "InProgress"}}
	srv, m := newTestServer(inv)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/invoke/"+model.StepStartTraining, "application/json",
		strings.NewReader(`{"time":"2024-01-03T00:00:00Z","endpoint":"foo","no_new_data":false}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.Equal(t, model.StepStartTraining, inv.step)
	assert.Equal(t, "foo", inv.in.Endpoint)

	var out model.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "foo-1", out.Name)
	assert.Equal(t, int64(1), m.HTTPRequestsTotal)
}

func TestInvokeAcceptsScheduledEvent(t *testing.T) {
	inv := &fakeInvoker{}
	srv, _ := newTestServer(inv)
	defer srv.Close()

	body := `{"version":"0","id":"53dc4d37","detail-type":"Scheduled Event","source":"aws.events",` +
		`"account":"123456789012","time":"2024-01-03T00:00:00Z","region":"us-east-1",` +
		`"resources":["arn:aws:events:us-east-1:123456789012:rule/retrain-foo"],"detail":{}}`
	resp, err := http.Post(srv.URL+"/invoke/"+model.StepCheckData, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-01-03T00:00:00Z", inv.in.Time)
	assert.Equal(t, 0, inv.in.Version)
}

func TestInvokeKeepsCallerRequestID(t *testing.T) {
	srv, _ := newTestServer(&fakeInvoker{})
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/invoke/notify", strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-Id"))
}

func TestInvokeErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
	}{
		{"unknown step", "/invoke/train_everything", `{}`, nil, http.StatusNotFound},
		{"bad json", "/invoke/notify", `{"message":`, nil, http.StatusBadRequest},
		{"missing fields", "/invoke/notify", `{}`, &model.MissingFieldError{Step: "notify", Fields: []string{"message"}}, http.StatusUnprocessableEntity},
		{"step failure", "/invoke/notify", `{"message":"x"}`, errors.New("slack down"), http.StatusInternalServerError},
		{"body too large", "/invoke/notify", `{"message":"` + strings.Repeat("a", int(MaxBodySize)) + `"}`, nil, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(&fakeInvoker{err: tt.err})
			defer srv.Close()

			resp, err := http.Post(srv.URL+tt.path, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)

			var er errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
			assert.NotEmpty(t, er.Error)
			assert.NotEmpty(t, er.RequestID)
		})
	}
}

func TestMetricsAndHealth(t *testing.T) {
	srv, _ := newTestServer(&fakeInvoker{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.5:5555"
	assert.Equal(t, "10.0.0.5", clientIP(r))

	r.Header.Set("X-Forwarded-For", "bogus, 203.0.113.1, 10.0.1.24")
	assert.Equal(t, "203.0.113.1", clientIP(r))
}
