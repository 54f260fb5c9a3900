// Package bitstream generates the DCC signal on the wire: preamble, packet
// bytes, and (in Operations mode) the RailCom cutout, driven entirely from
// PWM wrap events via pkgs/hal. It is the transmit side only; see
// pkgs/bitdecoder for reception.
package bitstream

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jdfin/dccstation/pkgs/dccpkt"
	"github.com/jdfin/dccstation/pkgs/dccspec"
	"github.com/jdfin/dccstation/pkgs/hal"
	"github.com/jdfin/dccstation/pkgs/railcom"
)

// Originator is implemented by whatever queued a packet (normally a
// throttle slot) so the cutout's RailCom collector can route a channel-2
// reply back to the packet that provoked it.
type Originator interface {
	DeliverRailCom(msgs []railcom.Msg)
}

// Two PWM channels share one slice: sigChannel toggles the track signal at
// 50% duty, enChannel drives the track-enable gate (full on during a
// packet bit, a quarter duty at the start of a cutout, off for the rest of
// it).
const (
	sigChannel = 0
	enChannel  = 1
)

// Tx is the DCC transmit-side bit/byte/packet/cutout scheduler.
type Tx struct {
	pwm   hal.Pwm
	power hal.Gpio
	uart  hal.Uart
	era   railcom.Era

	mu                    sync.Mutex
	pktIdle, pktReset     dccpkt.Packet
	pktA, pktB            dccpkt.Packet
	current, next         *dccpkt.Packet
	currentOrig, nextOrig Originator

	preambleBits  int
	cutoutEnabled bool

	byteIdx int // -2 cutout, -1 preamble, 0..len-1 data byte
	bitIdx  int
}

// New builds a Tx. era selects which RailCom line-code table the cutout
// collector decodes against.
func New(pwm hal.Pwm, power hal.Gpio, uart hal.Uart, era railcom.Era) *Tx {
	t := &Tx{
		pwm:      pwm,
		power:    power,
		uart:     uart,
		era:      era,
		pktIdle:  dccpkt.NewIdle(),
		pktReset: dccpkt.NewReset(),
	}
	t.current = &t.pktIdle
	t.next = &t.pktIdle

	power.Init()
	power.SetDirection(true)
	power.Write(false)

	pwm.OnWrap(t.onWrap)
	return t
}

// StartOps begins Operations-mode transmission (14-bit preamble, Idle
// templates) with the cutout enabled or not.
func (t *Tx) StartOps(railcomEnabled bool) {
	t.start(dccspec.OpsPreambleBits, &t.pktIdle, railcomEnabled)
}

// StartSvc begins Service-mode transmission with a 20-bit preamble. The
// first packet sent is Reset; after it, as in Operations mode, Idle goes
// out whenever nothing has been queued in time. Service mode never cuts
// out; there is no RailCom channel to collect during programming.
func (t *Tx) StartSvc() {
	t.start(dccspec.SvcPreambleBits, &t.pktReset, false)
}

func (t *Tx) start(preambleBits int, first *dccpkt.Packet, railcomEnabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.preambleBits = preambleBits
	t.cutoutEnabled = railcomEnabled
	t.current = first
	t.next = &t.pktIdle
	t.currentOrig = nil
	t.nextOrig = nil
	t.byteIdx = -1
	t.bitIdx = preambleBits - 1

	t.power.Write(true)
	t.pwm.Enable(true)
}

// Stop drops track power and disables the PWM slice at once; the slice is
// not left running at 0% duty. StartOps or StartSvc enables it again.
func (t *Tx) Stop() {
	t.power.Write(false)
	t.pwm.Enable(false)
}

// NeedPacket reports whether nothing beyond Idle is queued.
func (t *Tx) NeedPacket() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next == &t.pktIdle
}

// SendPacket queues pkt to follow the packet currently in progress.
// originator (nil if none) receives any RailCom channel-2 message the
// following cutout collects.
func (t *Tx) SendPacket(pkt dccpkt.Packet, originator Originator) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == &t.pktA {
		t.pktB = pkt
		t.next = &t.pktB
	} else {
		t.pktA = pkt
		t.next = &t.pktA
	}
	t.nextOrig = originator
}

// SendReset queues a Reset packet with no originator.
func (t *Tx) SendReset() {
	t.SendPacket(dccpkt.NewReset(), nil)
}

func (t *Tx) progBit(half int) {
	us := dccspec.T1NomUs
	if half == 0 {
		us = dccspec.T0NomUs
	}
	period := uint32(2 * us)
	t.pwm.SetPeriodUs(period)
	t.pwm.SetChannelDuty(sigChannel, period/2)
	t.pwm.SetChannelDuty(enChannel, period) // enable full on
}

// progCutoutEnter programs the first of the cutout's 4 bit-times: enable
// stays high for only the leading quarter of the period (landing the drop
// within dccspec.CutoutStartMinUs..MaxUs of the stop bit) before going low
// for the rest of the window, and the RailCom receiver is reset so stale
// UART state can't bleed into the new cutout.
func (t *Tx) progCutoutEnter() {
	period := uint32(2 * dccspec.T1NomUs)
	t.pwm.SetPeriodUs(period)
	t.pwm.SetChannelDuty(sigChannel, period/2)
	t.pwm.SetChannelDuty(enChannel, period/4)
	if t.uart == nil {
		return
	}
	t.uart.Deinit()
	if err := t.uart.Init(dccspec.RailComBaud); err != nil {
		logrus.WithError(err).Warn("bitstream: railcom uart reset failed")
	}
}

func (t *Tx) progCutoutOff() {
	period := uint32(2 * dccspec.T1NomUs)
	t.pwm.SetPeriodUs(period)
	t.pwm.SetChannelDuty(sigChannel, 0)
	t.pwm.SetChannelDuty(enChannel, 0)
}

// onWrap runs on every PWM wrap. It stands in for a hardware ISR, and
// pkgs/simhw calls it directly from its own timer goroutine. It holds t.mu
// for its whole run, and the RailCom sample taken at the start of each
// preamble parses the received bytes into newly allocated slices.
func (t *Tx) onWrap() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.byteIdx == -2 && t.bitIdx == 4:
		t.progCutoutEnter()
		t.bitIdx = 3

	case t.byteIdx == -2 && t.bitIdx > 0:
		t.progCutoutOff()
		t.bitIdx--

	case t.byteIdx == -2 && t.bitIdx == 0:
		t.progBit(1)
		t.byteIdx = -1
		t.bitIdx = t.preambleBits - 1

	case t.byteIdx == -1 && t.bitIdx == t.preambleBits-1:
		if t.cutoutEnabled {
			t.sampleRailCom()
		}
		t.progBit(1)
		t.bitIdx--

	case t.byteIdx == -1 && t.bitIdx > 0:
		t.progBit(1)
		t.bitIdx--

	case t.byteIdx == -1 && t.bitIdx == 0:
		t.progBit(0) // start bit
		// Handoff: the new packet becomes current exactly when its first
		// data bit is about to be programmed, so the preamble's earlier
		// RailCom sample (above) still attributes to the packet that just
		// finished, not the one about to start.
		t.current = t.next
		t.currentOrig = t.nextOrig
		t.next = &t.pktIdle
		t.nextOrig = nil
		t.byteIdx = 0
		t.bitIdx = 7

	case t.byteIdx >= 0 && t.bitIdx >= 0:
		data := t.current.Bytes()
		b := int((data[t.byteIdx] >> uint(t.bitIdx)) & 1)
		t.progBit(b)
		t.bitIdx--

	default: // byteIdx >= 0, bitIdx == -1: inter-byte or end-of-packet delimiter
		data := t.current.Bytes()
		if t.byteIdx+1 == len(data) {
			t.progBit(1)
			if t.cutoutEnabled {
				t.byteIdx = -2
				t.bitIdx = 4
			} else {
				// no cutout: stop bit counts as the first preamble one.
				t.byteIdx = -1
				t.bitIdx = t.preambleBits - 1
			}
		} else {
			t.progBit(0)
			t.byteIdx++
			t.bitIdx = 7
		}
	}
}

func (t *Tx) sampleRailCom() {
	if t.uart == nil {
		return
	}
	var buf [8]byte
	n := 0
	for n < len(buf) && t.uart.Readable() {
		b, err := t.uart.ReadByte()
		if err != nil {
			break
		}
		buf[n] = b
		n++
	}
	if n == 0 || t.currentOrig == nil {
		return
	}
	frame := railcom.Parse(t.era, buf[:n])
	if len(frame.Channel2) > 0 {
		t.currentOrig.DeliverRailCom(frame.Channel2)
	}
}
