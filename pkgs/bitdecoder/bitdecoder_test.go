package bitdecoder

import (
	"reflect"
	"testing"
)

// feedBits pushes each bit in bits as a matched pair of half-bits.
func feedBits(d *Decoder, bits ...int) {
	for _, b := range bits {
		d.HalfBit(HalfBit(b))
		d.HalfBit(HalfBit(b))
	}
}

func feedPreamble(d *Decoder, ones int) {
	for i := 0; i < ones; i++ {
		d.HalfBit(HalfOne)
		d.HalfBit(HalfOne)
	}
}

func TestIdleRoundTrip(t *testing.T) {
	var got []byte
	var gotPreamble int
	var gotBad int
	d := New(0)
	d.OnPacketReceived(func(pkt []byte, preambleBits int, startUs uint64, badCnt int) {
		got = pkt
		gotPreamble = preambleBits
		gotBad = badCnt
	})

	feedPreamble(d, 14)
	// start bit
	feedBits(d, 0)
	// byte 0xFF
	feedBits(d, 1, 1, 1, 1, 1, 1, 1, 1)
	// start bit for byte 2
	feedBits(d, 0)
	// byte 0x00
	feedBits(d, 0, 0, 0, 0, 0, 0, 0, 0)
	// start bit for byte 3
	feedBits(d, 0)
	// byte 0xFF
	feedBits(d, 1, 1, 1, 1, 1, 1, 1, 1)
	// end-of-packet bit (stop bit = 1)
	d.HalfBit(HalfOne)
	d.HalfBit(HalfOne)

	if !reflect.DeepEqual(got, []byte{0xFF, 0x00, 0xFF}) {
		t.Fatalf("got %x, want ff 00 ff", got)
	}
	if gotPreamble < 14 {
		t.Fatalf("preamble = %d, want >= 14", gotPreamble)
	}
	if gotBad != 0 {
		t.Fatalf("badCnt = %d, want 0", gotBad)
	}
}

func TestShortPreambleRejected(t *testing.T) {
	called := false
	d := New(0)
	d.OnPacketReceived(func(pkt []byte, preambleBits int, startUs uint64, badCnt int) {
		called = true
	})
	feedPreamble(d, 5) // fewer than 20 half-ones
	d.HalfBit(HalfZero)
	d.HalfBit(HalfZero)
	if called {
		t.Fatal("packet delivered from a too-short preamble")
	}
}

func TestInvalidHalfIncrementsBadCntAndResyncs(t *testing.T) {
	var gotBad int
	d := New(0)
	d.OnPacketReceived(func(pkt []byte, preambleBits int, startUs uint64, badCnt int) {
		gotBad = badCnt
	})

	feedPreamble(d, 14)
	feedBits(d, 0)
	feedBits(d, 1, 0, 1, 0, 1, 0, 1, 0)
	// inject a bad half-bit mid-packet: mismatched halves, one valid one invalid
	d.HalfBit(HalfOne)
	d.HalfBit(HalfInvalid)
	if d.state != stateUnsync {
		t.Fatal("invalid half-bit did not resync to Unsync")
	}

	// recover: new preamble, complete packet, should report accumulated bad_cnt
	feedPreamble(d, 14)
	feedBits(d, 0)
	feedBits(d, 1, 1, 1, 1, 1, 1, 1, 1)
	feedBits(d, 0)
	feedBits(d, 0, 0, 0, 0, 0, 0, 0, 0)
	d.HalfBit(HalfOne)
	d.HalfBit(HalfOne)

	if gotBad != 1 {
		t.Fatalf("badCnt = %d, want 1", gotBad)
	}
}

func TestToHalfClassification(t *testing.T) {
	if ToHalf(58) != HalfOne {
		t.Fatal("58us should classify as half-one")
	}
	if ToHalf(100) != HalfZero {
		t.Fatal("100us should classify as half-zero")
	}
	if ToHalf(10) != HalfInvalid {
		t.Fatal("10us should classify as invalid")
	}
}
