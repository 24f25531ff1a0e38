package obscodec

import "testing"

func TestU16LERoundTrip(t *testing.T) {
	in := []uint16{0, 1, 255, 256, 0xffff}
	out, err := DecodeU16LE(EncodeU16LE(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len=%d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("index %d: %d != %d", i, out[i], in[i])
		}
	}
	if _, err := DecodeU16LE("AQ=="); err == nil {
		t.Fatalf("expected odd-length error")
	}
}
