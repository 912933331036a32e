// internal/notify/slack.go
package notify

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

// Slack 은 chat.postMessage API 로 채널에 메시지를 보낸다.
//
// 재시도하지 않으며, HTTP 호출 성공(2xx) 이상의 전달 확인은 하지 않는다.
// 응답 body 의 ok=false 는 WARN 로그로만 남긴다.
type Slack struct {
	apiURL  string
	token   string
	channel string
	client  *http.Client
}

func NewSlack(apiURL, token, channel string, timeout time.Duration) *Slack {
	return &Slack{
		apiURL:  apiURL,
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: timeout},
	}
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Post 는 text 를 설정된 채널에 게시한다.
func (s *Slack) Post(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("channel", s.channel)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "build slack request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post slack message")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("post slack message: unexpected status %d", resp.StatusCode)
	}

	// 2xx 이후 body 는 ok=false 경고용이다. 읽기 실패는 전송 실패가 아니다.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		zlog.Debug().Err(err).Str("channel", s.channel).Msg("slack response body unreadable")
		return nil
	}

	var r slackResponse
	if json.Unmarshal(body, &r) == nil && !r.OK {
		zlog.Warn().Str("channel", s.channel).Str("slack_error", r.Error).Msg("slack rejected message")
	}
	return nil
}
