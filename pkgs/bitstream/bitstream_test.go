package bitstream

import (
	"testing"

	"github.com/jdfin/dccstation/pkgs/dccpkt"
	"github.com/jdfin/dccstation/pkgs/railcom"
)

type fakePwm struct {
	handler func()
	enabled bool
}

func (p *fakePwm) SetPeriodUs(us uint32)                 {}
func (p *fakePwm) SetChannelDuty(channel int, duty uint32) {}
func (p *fakePwm) Enable(on bool)                        { p.enabled = on }
func (p *fakePwm) OnWrap(handler func())                 { p.handler = handler }
func (p *fakePwm) fireWrap()                             { p.handler() }

type fakeGpio struct {
	out  bool
	high bool
}

func (g *fakeGpio) Init()                  {}
func (g *fakeGpio) SetDirection(out bool)  { g.out = out }
func (g *fakeGpio) Write(high bool)        { g.high = high }

// fakeUart refills from source every time Init is called, mirroring how
// progCutoutEnter resets the real receiver at the start of every cutout:
// each cutout gets its own fresh copy of whatever bytes the test seeded.
type fakeUart struct {
	source []byte
	cur    []byte
}

func (u *fakeUart) Init(baud uint32) error {
	u.cur = append([]byte(nil), u.source...)
	return nil
}
func (u *fakeUart) Deinit()        {}
func (u *fakeUart) Readable() bool { return len(u.cur) > 0 }
func (u *fakeUart) ReadByte() (byte, error) {
	b := u.cur[0]
	u.cur = u.cur[1:]
	return b, nil
}

type fakeOriginator struct {
	delivered [][]railcom.Msg
}

func (o *fakeOriginator) DeliverRailCom(msgs []railcom.Msg) {
	o.delivered = append(o.delivered, msgs)
}

func TestNeedPacketInitiallyTrue(t *testing.T) {
	tx := New(&fakePwm{}, &fakeGpio{}, &fakeUart{}, railcom.Era2021)
	if !tx.NeedPacket() {
		t.Fatal("NeedPacket should be true before anything is queued")
	}
}

func TestSendPacketClearsNeedPacketUntilHandedOff(t *testing.T) {
	pwm := &fakePwm{}
	tx := New(pwm, &fakeGpio{}, &fakeUart{}, railcom.Era2021)
	tx.StartOps(false)

	orig := &fakeOriginator{}
	pkt, err := dccpkt.NewSpeed128(3, 50)
	if err != nil {
		t.Fatal(err)
	}
	tx.SendPacket(pkt, orig)
	if tx.NeedPacket() {
		t.Fatal("NeedPacket should be false right after SendPacket")
	}

	handedOff := false
	for i := 0; i < 2000 && !handedOff; i++ {
		pwm.fireWrap()
		if tx.NeedPacket() {
			handedOff = true
		}
	}
	if !handedOff {
		t.Fatal("queued packet was never handed off within 2000 wraps")
	}
}

func TestCutoutCollectsRailComForOriginator(t *testing.T) {
	pwm := &fakePwm{}
	ack := byte(0xf0) // known Ack codeword under both eras
	uart := &fakeUart{source: []byte{ack, ack, ack, ack, ack, ack}}
	tx := New(pwm, &fakeGpio{}, uart, railcom.Era2021)
	tx.StartOps(true)

	orig := &fakeOriginator{}
	pkt, err := dccpkt.NewSpeed128(3, 50)
	if err != nil {
		t.Fatal(err)
	}
	tx.SendPacket(pkt, orig)

	for i := 0; i < 4000 && len(orig.delivered) == 0; i++ {
		pwm.fireWrap()
	}
	if len(orig.delivered) == 0 {
		t.Fatal("originator never received a railcom delivery")
	}
	msgs := orig.delivered[0]
	if len(msgs) != 6 {
		t.Fatalf("got %d channel-2 messages, want 6", len(msgs))
	}
	for _, m := range msgs {
		if m.ID != railcom.Ack {
			t.Fatalf("message ID = %v, want Ack", m.ID)
		}
	}
}
