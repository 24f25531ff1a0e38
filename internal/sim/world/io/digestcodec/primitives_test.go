package digestcodec

import (
	"bytes"
	"testing"
)

func TestWriteStringIsPrefixFree(t *testing.T) {
	var tmp [8]byte
	var a, b bytes.Buffer
	WriteString(&a, &tmp, "ab")
	WriteString(&a, &tmp, "c")
	WriteString(&b, &tmp, "a")
	WriteString(&b, &tmp, "bc")
	if bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("adjacent strings must not alias")
	}
}

func TestWriteI64LittleEndian(t *testing.T) {
	var tmp [8]byte
	var buf bytes.Buffer
	WriteI64(&buf, &tmp, -1)
	WriteU64(&buf, &tmp, 1)
	got := buf.Bytes()
	if len(got) != 16 || got[0] != 0xff || got[7] != 0xff || got[8] != 1 || got[15] != 0 {
		t.Fatalf("bytes=%x", got)
	}
	if BoolByte(true) != 1 || BoolByte(false) != 0 {
		t.Fatalf("BoolByte")
	}
}
