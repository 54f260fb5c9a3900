package throttle

import (
	"testing"

	"github.com/jdfin/dccstation/pkgs/dccpkt"
	"github.com/jdfin/dccstation/pkgs/railcom"
)

func mustNew(t *testing.T, address, funcMax int) *Slot {
	t.Helper()
	s, err := New(address, funcMax)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRotationAlternatesSpeedAndFunctionGroups(t *testing.T) {
	s := mustNew(t, 3, 21) // groups: F0, F5, F9, F13, F21
	var types []dccpkt.Type
	for i := 0; i < 10; i++ {
		p, err := s.NextPacket()
		if err != nil {
			t.Fatal(err)
		}
		types = append(types, p.Type())
	}
	want := []dccpkt.Type{
		dccpkt.Speed128, dccpkt.Func0,
		dccpkt.Speed128, dccpkt.Func5,
		dccpkt.Speed128, dccpkt.Func9,
		dccpkt.Speed128, dccpkt.Func13,
		dccpkt.Speed128, dccpkt.Func21,
	}
	for i, w := range want {
		if types[i] != w {
			t.Fatalf("packet %d: got %v, want %v", i, types[i], w)
		}
	}
}

func TestFuncMax4OnlyEmitsFunc0(t *testing.T) {
	s := mustNew(t, 3, 4)
	for i := 0; i < 6; i++ {
		p, err := s.NextPacket()
		if err != nil {
			t.Fatal(err)
		}
		if i%2 == 0 {
			if p.Type() != dccpkt.Speed128 {
				t.Fatalf("packet %d: got %v, want Speed128", i, p.Type())
			}
		} else if p.Type() != dccpkt.Func0 {
			t.Fatalf("packet %d: got %v, want Func0", i, p.Type())
		}
	}
}

func TestSetSpeedRewindsToSpeedSlot(t *testing.T) {
	s := mustNew(t, 3, 13)
	// advance past the first speed slot into a function slot
	if _, err := s.NextPacket(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSpeed(50); err != nil {
		t.Fatal(err)
	}
	p, err := s.NextPacket()
	if err != nil {
		t.Fatal(err)
	}
	if p.Type() != dccpkt.Speed128 {
		t.Fatalf("got %v, want Speed128 right after SetSpeed", p.Type())
	}
	got, ok := dccpkt.DecodeSpeed128(p.Bytes())
	if !ok || got != 50 {
		t.Fatalf("decoded speed = %d (ok=%v), want 50", got, ok)
	}
}

func TestSetFunctionJumpsToItsGroup(t *testing.T) {
	s := mustNew(t, 3, 21)
	if err := s.SetFunction(22, true); err != nil {
		t.Fatal(err)
	}
	p, err := s.NextPacket()
	if err != nil {
		t.Fatal(err)
	}
	if p.Type() != dccpkt.Func21 {
		t.Fatalf("got %v, want Func21 right after setting F22", p.Type())
	}
	bits, ok := dccpkt.DecodeFunc21(p.Bytes())
	if !ok || !bits[1] { // F22 is bit index 1 within the F21 group
		t.Fatalf("F22 bit not set in Func21 packet: bits=%v ok=%v", bits, ok)
	}
}

func TestWriteCVPreemptsRotationForFiveSends(t *testing.T) {
	s := mustNew(t, 3, 4)
	if err := s.WriteCV(29, 6); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		p, err := s.NextPacket()
		if err != nil {
			t.Fatal(err)
		}
		if p.Type() != dccpkt.CVWriteByte {
			t.Fatalf("packet %d: got %v, want CVWriteByte", i, p.Type())
		}
	}
	p, err := s.NextPacket()
	if err != nil {
		t.Fatal(err)
	}
	if p.Type() != dccpkt.Speed128 {
		t.Fatalf("rotation did not resume after 5 CV writes: got %v", p.Type())
	}
}

func TestDeliverRailComStoresLatest(t *testing.T) {
	s := mustNew(t, 3, 4)
	if s.LastRailCom() != nil {
		t.Fatal("expected nil before any delivery")
	}
	msgs := []railcom.Msg{{ID: railcom.Pom, Val: 6}}
	s.DeliverRailCom(msgs)
	got := s.LastRailCom()
	if len(got) != 1 || got[0].Val != 6 {
		t.Fatalf("got %v", got)
	}
}

func TestSetAddressRejectsOutOfRange(t *testing.T) {
	s := mustNew(t, 3, 4)
	if err := s.SetAddress(0); err == nil {
		t.Fatal("expected error for address 0")
	}
	if err := s.SetAddress(10240); err == nil {
		t.Fatal("expected error for address 10240")
	}
}
