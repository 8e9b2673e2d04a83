package util

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/go-sod/wknn/internal/byteutil"
)

// HashSeries digests a list of integer parameters followed by one or more
// series. Series lengths are mixed in so that boundaries cannot shift.
func HashSeries(params []int, series ...[]float32) [32]byte {
	buffer := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buffer)

	var word [8]byte
	for _, p := range params {
		binary.LittleEndian.PutUint64(word[:], uint64(int64(p)))
		buffer.Write(word[:])
	}
	for _, s := range series {
		binary.LittleEndian.PutUint64(word[:], uint64(len(s)))
		buffer.Write(word[:])
		for i := range s {
			binary.LittleEndian.PutUint32(word[:4], math.Float32bits(s[i]))
			buffer.Write(word[:4])
		}
	}
	return sha256.Sum256(buffer.Bytes())
}
