package server

import (
	"net"
	"net/http"
	"strings"
)

// clientIP:
//
// 접근 로그에 남길 호출자 주소.
// 어댑터는 로컬 Step Functions, 테스트 하니스 또는 ALB 뒤에서 호출되므로
//  1. X-Forwarded-For 의 첫 번째 유효한 IP
//  2. RemoteAddr 의 host 부분
//
// 순서로 사용한다. 사설 대역도 그대로 남긴다.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
