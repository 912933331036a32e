package pool

import (
	"bytes"
	"sync"
)

// ---------------------------------------------------------------
// HTTP 어댑터는 /invoke/{step} 요청마다 이벤트 JSON body 를 읽는다.
// 이벤트는 수 KB 수준이므로 읽기 버퍼를 재사용한다.
// ---------------------------------------------------------------

// BodyPool:
//   - 요청 body 를 임시 저장하는 버퍼
//   - 초기 용량 8KB (대부분의 이벤트는 여기에 수용됨)
//   - 너무 커진 버퍼는 PutBody 에서 버린다
var BodyPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 8*1024))
	},
}

// GetBody 는 비어 있는 버퍼를 꺼낸다.
func GetBody() *bytes.Buffer {
	buf := BodyPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBody:
//   - maxCap 보다 커진 버퍼는 풀에 돌려놓지 않고 GC 에 맡긴다
func PutBody(buf *bytes.Buffer, maxCap int64) {
	if int64(buf.Cap()) <= maxCap {
		buf.Reset()
		BodyPool.Put(buf)
	}
}
