package objstore

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the frame magic number zstd prepends to every stream; used
// to tell compressed object bytes apart from plaintext ones written before
// compression was introduced, or ones too small to bother compressing.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// minCompressSize is the smallest payload worth paying zstd's frame
// overhead for. Most blobs in a small repository's history are short text
// files; compressing them would grow, not shrink, the object.
const minCompressSize = 256

var (
	encoderPool = sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil)
			if err != nil {
				panic(err)
			}
			return enc
		},
	}
	decoderPool = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil)
			if err != nil {
				panic(err)
			}
			return dec
		},
	}
)

func isCompressed(data []byte) bool {
	return len(data) >= len(zstdMagic) && bytes.Equal(data[:len(zstdMagic)], zstdMagic)
}

func maybeCompress(data []byte) []byte {
	if len(data) < minCompressSize {
		return data
	}
	enc := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(enc)

	out := enc.EncodeAll(data, make([]byte, 0, len(data)))
	if len(out) >= len(data) {
		return data
	}
	return out
}

func decompress(data []byte) ([]byte, error) {
	if !isCompressed(data) {
		return data, nil
	}
	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)

	return dec.DecodeAll(data, nil)
}
