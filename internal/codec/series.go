// Package codec encodes prediction vectors as XDR for the results store
// and the cache.
package codec

import (
	"bytes"
	"fmt"

	xdr "github.com/davecgh/go-xdr/xdr2"

	"github.com/go-sod/wknn/internal/byteutil"
)

func MarshalSeries(values []float32) ([]byte, error) {
	if values == nil {
		values = []float32{}
	}
	buf := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buf)

	if _, err := xdr.Marshal(buf, values); err != nil {
		return nil, fmt.Errorf("xdr marshal %d values: %w", len(values), err)
	}
	return byteutil.Detach(buf), nil
}

func UnmarshalSeries(data []byte) ([]float32, error) {
	var values []float32
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &values); err != nil {
		return nil, fmt.Errorf("xdr unmarshal: %w", err)
	}
	return values, nil
}
