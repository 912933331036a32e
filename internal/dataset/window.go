// internal/dataset/window.go
package dataset

import (
	"path"
	"sort"
	"strings"
	"time"
)

// 일별 학습 데이터 파일 규칙
// ------------------------------------------------------------
//
//	<prefix>/<YYYY-MM-DD>.csv
//
// 날짜가 zero-padded ISO 형식이므로 문자열 정렬 = 시간 정렬이다.
// 최신 날짜 판단과 watermark 비교는 모두 문자열 비교로 처리한다.
const (
	DateLayout = "2006-01-02"
	FileExt    = ".csv"
)

// Window 는 today 를 포함해 과거 n 일의 날짜 문자열을 최신순으로 반환한다.
// 날짜 경계는 UTC 기준이다. n <= 0 이면 nil.
func Window(today time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	t := today.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	dates := make([]string, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, day.AddDate(0, 0, -i).Format(DateLayout))
	}
	return dates
}

// Filenames 는 날짜 목록을 "<date>.csv" 파일명으로 변환한다.
func Filenames(dates []string) []string {
	names := make([]string, len(dates))
	for i, d := range dates {
		names[i] = d + FileExt
	}
	return names
}

// DateOf 는 key 의 basename 에서 확장자를 뗀 날짜 부분을 반환한다.
func DateOf(key string) string {
	base := path.Base(key)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// Latest 는 key 목록 중 가장 최신 날짜를 반환한다. 목록이 비어 있으면 ok=false.
func Latest(keys []string) (string, bool) {
	if len(keys) == 0 {
		return "", false
	}
	dates := make([]string, len(keys))
	for i, k := range keys {
		dates[i] = DateOf(k)
	}
	sort.Strings(dates)
	return dates[len(dates)-1], true
}

// ValidDate 는 s 가 YYYY-MM-DD 형식의 실제 날짜인지 확인한다.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
