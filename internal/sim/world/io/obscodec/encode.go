// Package obscodec packs tile ids for the observer stream.
package obscodec

import (
	"encoding/base64"
	"fmt"
)

// EncodingU16LE names the chunk payload: base64 of little-endian uint16 tile ids,
// rows top to bottom, x fastest.
const EncodingU16LE = "U16LE_YX"

func EncodeU16LE(ids []uint16) string {
	buf := make([]byte, len(ids)*2)
	for i, v := range ids {
		off := i * 2
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func DecodeU16LE(s string) ([]uint16, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("obscodec: odd payload length %d", len(buf))
	}
	out := make([]uint16, len(buf)/2)
	for i := range out {
		out[i] = uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
	}
	return out, nil
}
