package images

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Algorithm 은 학습/추론에 쓰는 SageMaker 내장 알고리즘 이름이다.
const Algorithm = "linear-learner"

//go:embed images.yaml
var defaultTable []byte

// Table 은 algorithm -> region -> image URI 매핑이다.
type Table map[string]map[string]string

// Load 는 이미지 테이블을 읽는다.
// path 가 비어 있으면 바이너리에 포함된 기본 테이블을 사용한다.
func Load(path string) (Table, error) {
	data := defaultTable
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read image table %s", path)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "parse image table")
	}
	return t, nil
}

// Lookup 은 algorithm 과 region 에 해당하는 이미지 URI 를 반환한다.
func (t Table) Lookup(algorithm, region string) (string, error) {
	regions, ok := t[algorithm]
	if !ok {
		return "", errors.Errorf("no images for algorithm %s", algorithm)
	}
	image, ok := regions[region]
	if !ok || image == "" {
		return "", errors.Errorf("no %s image for region %s", algorithm, region)
	}
	return image, nil
}
