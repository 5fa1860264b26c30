package ring

import (
	"testing"
)

func TestByteRingFIFO(t *testing.T) {
	r := NewByteRing(8)
	input := []byte("hello, world! this runs past the ring capacity several times over")
	done := make(chan struct{})
	go func() {
		_, _ = r.Write(input)
		r.WriteSentinel()
		close(done)
	}()

	var got []byte
	for {
		b := r.ReadByte()
		if b == ByteSentinelFirst {
			b2 := r.ReadByte()
			if b2 == ByteSentinelSecond {
				break
			}
			got = append(got, b, b2)
			continue
		}
		got = append(got, b)
	}
	<-done

	if string(got) != string(input) {
		t.Errorf("ByteRing FIFO mismatch:\n got  %q\n want %q", got, input)
	}
}

func TestByteRingWraparound(t *testing.T) {
	r := NewByteRing(4)
	input := make([]byte, 37)
	for i := range input {
		input[i] = byte('a' + i%26)
	}

	go func() {
		_, _ = r.Write(input)
	}()

	got := make([]byte, len(input))
	for i := range got {
		got[i] = r.ReadByte()
	}
	if string(got) != string(input) {
		t.Errorf("wraparound mismatch:\n got  %q\n want %q", got, input)
	}
}
