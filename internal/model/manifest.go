package model

import (
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Manifest
// ------------------------------------------------------------
// SageMaker S3 ManifestFile 형식의 학습 입력 목록.
//
//	[{"prefix": "s3://bucket/data/<model>/train/"}, "2024-01-03.csv", "2024-01-01.csv"]
//
// 첫 원소는 prefix 헤더, 나머지는 prefix 기준 상대 key 이다.
// 학습 도중 버킷 내용이 바뀌어도 입력 파일 집합이 고정된다.
type Manifest struct {
	Prefix string
	Keys   []string
}

type manifestHeader struct {
	Prefix string `json:"prefix"`
}

// Encode 는 매니페스트를 JSON 배열로 직렬화한다. Keys 순서는 그대로 유지된다.
func (m Manifest) Encode() ([]byte, error) {
	payload := make([]any, 0, len(m.Keys)+1)
	payload = append(payload, manifestHeader{Prefix: m.Prefix})
	for _, k := range m.Keys {
		payload = append(payload, k)
	}
	return json.Marshal(payload)
}

// DecodeManifest 는 Encode 결과(또는 S3 에 저장된 매니페스트)를 다시 읽는다.
func DecodeManifest(data []byte) (Manifest, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Manifest{}, errors.Wrap(err, "decode manifest")
	}
	if len(raw) == 0 {
		return Manifest{}, errors.New("decode manifest: empty document")
	}

	var head manifestHeader
	if err := json.Unmarshal(raw[0], &head); err != nil || head.Prefix == "" {
		return Manifest{}, errors.New("decode manifest: first element must be a prefix header")
	}

	m := Manifest{Prefix: head.Prefix, Keys: make([]string, 0, len(raw)-1)}
	for i, r := range raw[1:] {
		var key string
		if err := json.Unmarshal(r, &key); err != nil {
			return Manifest{}, errors.Wrapf(err, "decode manifest: element %d is not a key", i+1)
		}
		m.Keys = append(m.Keys, key)
	}
	return m, nil
}
