package byteutil

import (
	"bytes"
	"sync"
)

var bytesBuffer = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

// GetBytesBuf returns an empty buffer from the pool.
func GetBytesBuf() *bytes.Buffer {
	p := bytesBuffer.Get().(*bytes.Buffer)
	p.Reset()
	return p
}

func PutBytesBuf(p *bytes.Buffer) {
	bytesBuffer.Put(p)
}

// Detach copies the buffer contents so the buffer can go back to the pool.
func Detach(p *bytes.Buffer) []byte {
	out := make([]byte, p.Len())
	copy(out, p.Bytes())
	return out
}
