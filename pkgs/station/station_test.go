package station

import (
	"testing"

	"github.com/jdfin/dccstation/pkgs/bitstream"
	"github.com/jdfin/dccstation/pkgs/currentsensor"
	"github.com/jdfin/dccstation/pkgs/dccpkt"
	"github.com/jdfin/dccstation/pkgs/railcom"
	"github.com/jdfin/dccstation/pkgs/throttle"
)

type fakePwm struct{ handler func() }

func (p *fakePwm) SetPeriodUs(us uint32)                   {}
func (p *fakePwm) SetChannelDuty(channel int, duty uint32) {}
func (p *fakePwm) Enable(on bool)                          {}
func (p *fakePwm) OnWrap(handler func())                   { p.handler = handler }
func (p *fakePwm) fireWrap()                               { p.handler() }

type fakeGpio struct{ high bool }

func (g *fakeGpio) Init()                 {}
func (g *fakeGpio) SetDirection(out bool) {}
func (g *fakeGpio) Write(high bool)       { g.high = high }

func newTx() (*bitstream.Tx, *fakePwm) {
	pwm := &fakePwm{}
	return bitstream.New(pwm, &fakeGpio{}, nil, railcom.Era2021), pwm
}

// scriptedAdc feeds valueFunc()'s result as fast as the consumer drains it,
// so a currentsensor.Sensor's averaging windows fill in a handful of
// scheduler ticks rather than real 10kHz wall-clock time.
type scriptedAdc struct {
	valueFunc func() uint16
	ch        chan uint16
	stopCh    chan struct{}
}

func newScriptedAdc(valueFunc func() uint16) *scriptedAdc {
	return &scriptedAdc{valueFunc: valueFunc, ch: make(chan uint16)}
}

func (a *scriptedAdc) Start() {
	a.stopCh = make(chan struct{})
	go func() {
		for {
			select {
			case <-a.stopCh:
				return
			case a.ch <- a.valueFunc():
			}
		}
	}()
}
func (a *scriptedAdc) Stop()                     { close(a.stopCh) }
func (a *scriptedAdc) Samples() <-chan uint16    { return a.ch }

// runUntilSvcDone pumps PWM wraps and Loop ticks until the Service
// operation completes or budget wraps have elapsed.
func runUntilSvcDone(t *testing.T, c *Controller, pwm *fakePwm, budget int) {
	t.Helper()
	for i := 0; i < budget; i++ {
		pwm.fireWrap()
		c.Loop()
		if done, _ := c.SvcDone(); done {
			return
		}
	}
	t.Fatalf("service operation did not finish within %d wraps", budget)
}

func TestModeTransitionsResetServiceState(t *testing.T) {
	tx, _ := newTx()
	sensor := currentsensor.New(newScriptedAdc(func() uint16 { return 0 }))
	c := New(tx, sensor)

	if c.Mode() != ModeOff {
		t.Fatalf("initial mode = %v, want Off", c.Mode())
	}
	c.SetModeOps(false)
	if c.Mode() != ModeOps {
		t.Fatalf("mode = %v, want Ops", c.Mode())
	}
	c.SetModeOff()
	if c.Mode() != ModeOff {
		t.Fatalf("mode = %v, want Off", c.Mode())
	}
}

func TestNextOpsPacketEmptyRegistryReturnsIdle(t *testing.T) {
	c := &Controller{}
	pkt, orig := c.nextOpsPacketLocked()
	if pkt.Type() != dccpkt.Idle {
		t.Fatalf("type = %v, want Idle", pkt.Type())
	}
	if orig != nil {
		t.Fatal("expected nil originator for an empty registry")
	}
}

func TestNextOpsPacketRoundRobinsThrottles(t *testing.T) {
	s1, err := throttle.New(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := throttle.New(5, 4)
	if err != nil {
		t.Fatal(err)
	}
	c := &Controller{throttles: []*throttle.Slot{s1, s2}}

	want := []int{5, 3, 5, 3}
	for i, w := range want {
		_, orig := c.nextOpsPacketLocked()
		slot, ok := orig.(*throttle.Slot)
		if !ok {
			t.Fatalf("call %d: originator is not a *throttle.Slot", i)
		}
		if slot.Address() != w {
			t.Fatalf("call %d: address = %d, want %d", i, slot.Address(), w)
		}
	}
}

func TestCreateFindDeleteLoco(t *testing.T) {
	tx, _ := newTx()
	sensor := currentsensor.New(newScriptedAdc(func() uint16 { return 0 }))
	c := New(tx, sensor)

	s1, err := c.CreateLoco(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := c.CreateLoco(3, 21) // duplicate create returns the existing slot
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Fatal("duplicate CreateLoco should return the existing slot")
	}
	if c.FindLoco(99) != nil {
		t.Fatal("expected nil for an address never created")
	}
	if !c.DeleteLoco(3) {
		t.Fatal("DeleteLoco should report true for an address that existed")
	}
	if c.FindLoco(3) != nil {
		t.Fatal("expected nil after DeleteLoco")
	}
	if c.DeleteLoco(3) {
		t.Fatal("DeleteLoco should report false the second time")
	}
}

func TestWriteCVNoAckFails(t *testing.T) {
	tx, pwm := newTx()
	sensor := currentsensor.New(newScriptedAdc(func() uint16 { return 100 }))
	sensor.Start()
	defer sensor.Stop()
	c := New(tx, sensor)

	if err := c.WriteCV(29, 6); err != nil {
		t.Fatal(err)
	}
	runUntilSvcDone(t, c, pwm, 200000)

	done, result := c.SvcDone()
	if !done || result {
		t.Fatalf("SvcDone = (%v, %v), want (true, false)", done, result)
	}
	if c.Mode() != ModeOff {
		t.Fatalf("mode = %v, want Off after a finished write", c.Mode())
	}
}

func TestWriteCVAckSucceeds(t *testing.T) {
	tx, pwm := newTx()
	var ctrl *Controller
	adc := newScriptedAdc(func() uint16 {
		ctrl.mu.Lock()
		idx := ctrl.svcWinIdx
		ctrl.mu.Unlock()
		if idx >= 1 {
			return 4095 // pegged high: acks as soon as the command window starts
		}
		return 100
	})
	sensor := currentsensor.New(adc)
	ctrl = New(tx, sensor)
	sensor.Start()
	defer sensor.Stop()

	if err := ctrl.WriteCV(29, 6); err != nil {
		t.Fatal(err)
	}
	runUntilSvcDone(t, ctrl, pwm, 200000)

	done, result := ctrl.SvcDone()
	if !done || !result {
		t.Fatalf("SvcDone = (%v, %v), want (true, true)", done, result)
	}
}

func TestReadCVAssemblesByteFromPerBitAcks(t *testing.T) {
	tx, pwm := newTx()
	var ctrl *Controller
	// Window indices: 0=reset1, 1..8=bits 7..0 in descending order, 9=final
	// verify-byte. Acking 1,3,6,8,9 sets bits 7,5,2,0 and confirms the
	// assembled byte 0xA5 (1010 0101) on the final verify.
	ackWindows := map[int]bool{1: true, 3: true, 6: true, 8: true, 9: true}
	adc := newScriptedAdc(func() uint16 {
		ctrl.mu.Lock()
		idx := ctrl.svcWinIdx
		ctrl.mu.Unlock()
		if ackWindows[idx] {
			return 4095
		}
		return 100
	})
	sensor := currentsensor.New(adc)
	ctrl = New(tx, sensor)
	sensor.Start()
	defer sensor.Stop()

	if err := ctrl.ReadCV(29); err != nil {
		t.Fatal(err)
	}
	runUntilSvcDone(t, ctrl, pwm, 400000)

	done, result, val := ctrl.SvcDoneValue()
	if !done || !result {
		t.Fatalf("SvcDoneValue = (%v, %v, %d), want (true, true, ...)", done, result, val)
	}
	if val != 0xA5 {
		t.Fatalf("val = 0x%02X, want 0xA5", val)
	}
}

func TestReadCVNoAcksYieldsZeroAndFailure(t *testing.T) {
	tx, pwm := newTx()
	sensor := currentsensor.New(newScriptedAdc(func() uint16 { return 100 }))
	sensor.Start()
	defer sensor.Stop()
	c := New(tx, sensor)

	if err := c.ReadCV(29); err != nil {
		t.Fatal(err)
	}
	runUntilSvcDone(t, c, pwm, 400000)

	done, result, val := c.SvcDoneValue()
	if !done || result || val != 0 {
		t.Fatalf("SvcDoneValue = (%v, %v, %d), want (true, false, 0)", done, result, val)
	}
}

func TestReadBitAcksOnFirstTryReturnsZero(t *testing.T) {
	tx, pwm := newTx()
	var ctrl *Controller
	adc := newScriptedAdc(func() uint16 {
		ctrl.mu.Lock()
		idx := ctrl.svcWinIdx
		ctrl.mu.Unlock()
		if idx == 1 { // the verify-bit=0 window
			return 4095
		}
		return 100
	})
	sensor := currentsensor.New(adc)
	ctrl = New(tx, sensor)
	sensor.Start()
	defer sensor.Stop()

	if err := ctrl.ReadBit(29, 3); err != nil {
		t.Fatal(err)
	}
	runUntilSvcDone(t, ctrl, pwm, 200000)

	done, result, val := ctrl.SvcDoneValue()
	if !done || !result || val != 0 {
		t.Fatalf("SvcDoneValue = (%v, %v, %d), want (true, true, 0)", done, result, val)
	}
}

func TestReadBitAcksOnSecondTryReturnsOne(t *testing.T) {
	tx, pwm := newTx()
	var ctrl *Controller
	adc := newScriptedAdc(func() uint16 {
		ctrl.mu.Lock()
		idx := ctrl.svcWinIdx
		ctrl.mu.Unlock()
		if idx == 2 { // the verify-bit=1 window, reached only if bit=0 didn't ack
			return 4095
		}
		return 100
	})
	sensor := currentsensor.New(adc)
	ctrl = New(tx, sensor)
	sensor.Start()
	defer sensor.Stop()

	if err := ctrl.ReadBit(29, 3); err != nil {
		t.Fatal(err)
	}
	runUntilSvcDone(t, ctrl, pwm, 200000)

	done, result, val := ctrl.SvcDoneValue()
	if !done || !result || val != 1 {
		t.Fatalf("SvcDoneValue = (%v, %v, %d), want (true, true, 1)", done, result, val)
	}
}
