package station

import (
	"github.com/sirupsen/logrus"

	"github.com/jdfin/dccstation/pkgs/dccpkt"
	"github.com/jdfin/dccstation/pkgs/dccspec"
)

// svcStep is one run of identical packets within a svcWindow.
type svcStep struct {
	build func() (dccpkt.Packet, error)
	count int
}

// svcWindow is a contiguous run of steps over which ack detection is a
// single attempt: the first short-average excursion above threshold
// anywhere in the window latches success for the whole window, and
// onComplete is called once with that result when every step has sent its
// packets (or, for a non-logging sensor, as soon as the ack latches).
type svcWindow struct {
	steps      []svcStep
	checkAck   bool
	onComplete func(ack bool)
}

func resetWindow(n int, onComplete func(ack bool)) svcWindow {
	return svcWindow{
		steps: []svcStep{{
			build: func() (dccpkt.Packet, error) { return dccpkt.NewReset(), nil },
			count: n,
		}},
		onComplete: onComplete,
	}
}

func (c *Controller) refreshThresholdLocked() {
	c.svcThresh = c.sensor.LongMa() + dccspec.AckIncMa
}

// WriteCV starts the Service-mode CV-byte write protocol: 20 Reset
// packets, 5 SvcWriteByte packets, 5 Reset packets, with an adaptive ack
// threshold snapshotted after the first Reset cohort. Returns ErrBusy if a
// Service operation is already in progress.
func (c *Controller) WriteCV(cv, val int) error {
	pkt, err := dccpkt.NewSvcWriteByte(cv, val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeSvc {
		return ErrBusy
	}
	c.beginWriteLocked(SvcWriteCv, pkt)
	return nil
}

// WriteBit is WriteCV's bit-manipulation counterpart: it writes a single
// bit of cv rather than the whole byte.
func (c *Controller) WriteBit(cv, bitIdx, val int) error {
	pkt, err := dccpkt.NewSvcBitManip(cv, bitIdx, val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeSvc {
		return ErrBusy
	}
	c.beginWriteLocked(SvcWriteBit, pkt)
	return nil
}

func (c *Controller) beginWriteLocked(state SvcState, pkt dccpkt.Packet) {
	c.svcState = state
	c.svcResultReady = false
	c.svcWindows = []svcWindow{
		resetWindow(dccspec.SvcReset1Count, func(bool) { c.refreshThresholdLocked() }),
		{
			steps: []svcStep{
				{build: func() (dccpkt.Packet, error) { return pkt, nil }, count: dccspec.SvcCommandCount},
				{build: func() (dccpkt.Packet, error) { return dccpkt.NewReset(), nil }, count: dccspec.SvcReset2Count},
			},
			checkAck: true,
			onComplete: func(ack bool) {
				c.svcResult = ack
				c.svcResultReady = true
				c.setModeOffLocked()
			},
		},
	}
	c.startSvcLocked()
}

// ReadCV starts the Service-mode CV-byte read protocol: for each bit from
// 7 down to 0, a verify-bit-asserting-1 cohort decides that bit of the
// assembled value, then a final verify-byte cohort confirms the whole
// byte. Only the final cohort's ack determines success; the per-bit acks
// only shape the value being verified.
func (c *Controller) ReadCV(cv int) error {
	if _, err := dccpkt.NewSvcBitManip(cv, 0, 1); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeSvc {
		return ErrBusy
	}

	c.svcState = SvcReadCv
	c.svcResultReady = false
	c.svcCvVal = 0

	windows := []svcWindow{resetWindow(dccspec.SvcReset1Count, func(bool) { c.refreshThresholdLocked() })}
	for bit := 7; bit >= 0; bit-- {
		bit := bit
		windows = append(windows, svcWindow{
			steps: []svcStep{
				{build: func() (dccpkt.Packet, error) { return dccpkt.NewSvcBitManip(cv, bit, 1) }, count: dccspec.SvcCommandCount},
				{build: func() (dccpkt.Packet, error) { return dccpkt.NewReset(), nil }, count: dccspec.SvcReset2Count},
			},
			checkAck: true,
			onComplete: func(ack bool) {
				if ack {
					c.svcCvVal |= 1 << uint(bit)
				}
				c.refreshThresholdLocked()
			},
		})
	}
	windows = append(windows, svcWindow{
		steps: []svcStep{
			{build: func() (dccpkt.Packet, error) { return dccpkt.NewSvcVerifyByte(cv, int(c.svcCvVal)) }, count: dccspec.SvcCommandCount},
			{build: func() (dccpkt.Packet, error) { return dccpkt.NewReset(), nil }, count: dccspec.SvcReset2Count},
		},
		checkAck: true,
		onComplete: func(ack bool) {
			c.svcResult = ack
			c.svcResultVal = c.svcCvVal
			c.svcResultReady = true
			c.setModeOffLocked()
		},
	})

	c.svcWindows = windows
	c.startSvcLocked()
	return nil
}

// ReadBit starts the Service-mode single-bit read protocol: a
// verify-bit-asserting-0 cohort, and only if that doesn't ack, a
// verify-bit-asserting-1 cohort. Whichever acks (or neither) decides the
// result.
func (c *Controller) ReadBit(cv, bitIdx int) error {
	if _, err := dccpkt.NewSvcBitManip(cv, bitIdx, 0); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeSvc {
		return ErrBusy
	}

	c.svcState = SvcReadBit
	c.svcResultReady = false

	verifyWindow := func(val int, onComplete func(ack bool)) svcWindow {
		return svcWindow{
			steps: []svcStep{
				{build: func() (dccpkt.Packet, error) { return dccpkt.NewSvcBitManip(cv, bitIdx, val) }, count: dccspec.SvcCommandCount},
				{build: func() (dccpkt.Packet, error) { return dccpkt.NewReset(), nil }, count: dccspec.SvcReset2Count},
			},
			checkAck:   true,
			onComplete: onComplete,
		}
	}
	var tryValue func(val int)
	tryValue = func(val int) {
		c.svcWindows = append(c.svcWindows, verifyWindow(val, func(ack bool) {
			if ack {
				c.svcResult = true
				c.svcResultVal = byte(val)
				c.svcResultReady = true
				c.setModeOffLocked()
				return
			}
			if val == 0 {
				tryValue(1)
				return
			}
			c.svcResult = false
			c.svcResultVal = 0
			c.svcResultReady = true
			c.setModeOffLocked()
		}))
	}

	c.svcWindows = []svcWindow{resetWindow(dccspec.SvcReset1Count, func(bool) { c.refreshThresholdLocked() })}
	tryValue(0)
	c.startSvcLocked()
	return nil
}

func (c *Controller) startSvcLocked() {
	c.svcWinIdx = 0
	c.svcStepIdx = 0
	c.svcAck = false
	c.mode = ModeSvc
	c.tx.StartSvc()
}

// tickSvcLocked advances the Service protocol by at most one packet. Ack
// detection is checked on every call, independent of packet boundaries,
// since the underlying current excursion isn't aligned to them.
func (c *Controller) tickSvcLocked() {
	if c.svcWinIdx >= len(c.svcWindows) {
		return
	}
	win := &c.svcWindows[c.svcWinIdx]

	if win.checkAck && !c.svcAck && c.sensor.ShortMa() >= c.svcThresh {
		c.svcAck = true
		if !c.sensor.Logging() {
			c.finishSvcWindowLocked()
			return
		}
	}

	if !c.tx.NeedPacket() {
		return
	}
	if c.svcStepIdx >= len(win.steps) {
		c.finishSvcWindowLocked()
		return
	}

	step := &win.steps[c.svcStepIdx]
	pkt, err := step.build()
	if err != nil {
		logrus.WithError(err).Error("station: service packet build failed, aborting")
		c.setModeOffLocked()
		return
	}
	c.tx.SendPacket(pkt, nil)
	step.count--
	if step.count <= 0 {
		c.svcStepIdx++
	}
}

func (c *Controller) finishSvcWindowLocked() {
	win := c.svcWindows[c.svcWinIdx]
	ack := c.svcAck
	c.svcWinIdx++
	c.svcStepIdx = 0
	c.svcAck = false
	if win.onComplete != nil {
		win.onComplete(ack)
	}
}

// SvcDone reports whether the in-progress Service operation has finished
// and, if so, whether it succeeded. It returns false for done while one is
// still running, and also while none has ever been started.
func (c *Controller) SvcDone() (done, result bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.svcResultReady, c.svcResult
}

// SvcDoneValue is SvcDone plus the decoded CV value, meaningful only after
// a successful ReadCV (whole byte) or ReadBit (0 or 1).
func (c *Controller) SvcDoneValue() (done, result bool, val byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.svcResultReady, c.svcResult, c.svcResultVal
}
