// Package bitdecoder turns a stream of rising/falling edge timestamps into
// received DCC packets. It is the receive side only; see pkgs/bitstream for
// transmission.
package bitdecoder

import (
	"github.com/sirupsen/logrus"

	"github.com/jdfin/dccstation/pkgs/dccspec"
)

// HalfBit classifies one inter-edge interval.
type HalfBit int

const (
	HalfZero HalfBit = iota
	HalfOne
	HalfInvalid
)

// ToHalf classifies an inter-edge interval in microseconds against the
// receive-side timing windows.
func ToHalf(us int) HalfBit {
	switch {
	case us >= dccspec.TR0MinUs && us <= dccspec.TR0MaxUs:
		return HalfZero
	case us >= dccspec.TR1MinUs && us <= dccspec.TR1MaxUs:
		return HalfOne
	default:
		return HalfInvalid
	}
}

// state is the decoder's synchronization state.
type state int

const (
	stateUnsync state = iota
	statePreamble
	stateBitHalf
	stateBitWhole
)

const pktMax = 16

// RecvFunc is called with a complete packet: the raw bytes, the number of
// preamble one-bits that preceded it, the edge timestamp (microseconds) the
// packet started at, and the bad-edge count accumulated since the previous
// packet.
type RecvFunc func(pkt []byte, preambleBits int, startUs uint64, badCnt int)

// Decoder is the DCC receive-side bit/byte/packet assembler. It holds no
// reference to any hal.* interface; the caller feeds it edge times however
// it samples them (GPIO interrupt, ADC-derived edge detection, or a test
// harness).
type Decoder struct {
	verbosity int

	state    state
	preamble int // half-ones counted in current preamble run
	bitExp   int // expected half for stateBitHalf

	haveEdge bool
	edgeUs   uint64
	startUs  uint64
	zeroUs   uint64

	badCnt int

	byteVal byte
	bitNum  int // 0 = start bit, 1..8 = data bits msb-first

	pkt    [pktMax]byte
	pktLen int

	recv RecvFunc
}

// New creates a Decoder. verbosity: 0 silent, 2 logs each byte, 3 logs
// each bit, 4 logs each state transition.
func New(verbosity int) *Decoder {
	d := &Decoder{verbosity: verbosity, state: stateUnsync}
	if verbosity > 0 {
		logrus.Debugf("bitdecoder: verbosity=%d", verbosity)
	}
	if verbosity >= 4 {
		logrus.Trace("bitdecoder: >Unsync")
	}
	return d
}

// OnPacketReceived installs the sink called for each complete packet.
func (d *Decoder) OnPacketReceived(recv RecvFunc) {
	d.recv = recv
}

// Edge reports an edge observed at edgeUs (a free-running microsecond
// clock). The first edge ever reported only seeds the reference time; no
// half-bit is derived from it.
func (d *Decoder) Edge(edgeUs uint64) {
	if !d.haveEdge {
		d.haveEdge = true
		d.edgeUs = edgeUs
		return
	}
	us := int(edgeUs - d.edgeUs)
	d.edgeUs = edgeUs
	d.HalfBit(ToHalf(us))
}

// HalfBit advances the state machine by one classified half-bit.
func (d *Decoder) HalfBit(h HalfBit) {
	if h == HalfInvalid {
		if d.state != stateUnsync && d.verbosity >= 4 {
			logrus.Trace("bitdecoder: >Unsync (invalid)")
		}
		d.state = stateUnsync
		d.badCnt++
		return
	}

	switch d.state {

	case stateUnsync:
		if h == HalfOne {
			d.preamble = 1
			d.state = statePreamble
			if d.verbosity >= 4 {
				logrus.Trace("bitdecoder: >Preamble")
			}
		}

	case statePreamble:
		if h == HalfOne {
			d.preamble++
			break
		}
		// half-zero
		if d.preamble >= dccspec.PreambleMinHalfOnes {
			d.pktLen = 0
			d.bitNum = 0
			d.bitExp = 0
			d.state = stateBitHalf
			if d.verbosity >= 4 {
				logrus.Tracef("bitdecoder: %d >BitHalf", d.preamble)
			}
			d.startUs = d.edgeUs
			if d.zeroUs == 0 {
				d.zeroUs = d.startUs
			}
		} else {
			d.state = stateUnsync
			if d.verbosity >= 4 {
				logrus.Tracef("bitdecoder: %d >Unsync (short preamble)", d.preamble)
			}
		}

	case stateBitHalf:
		if int(h) == d.bitExp {
			if d.bitRx(d.bitExp) {
				d.preamble = 2
				d.state = statePreamble
				if d.verbosity >= 4 {
					logrus.Trace("bitdecoder: >Preamble")
				}
			} else {
				d.state = stateBitWhole
				if d.verbosity >= 4 {
					logrus.Trace("bitdecoder: >BitWhole")
				}
			}
		} else if h == HalfZero {
			d.state = stateUnsync
			if d.verbosity >= 4 {
				logrus.Trace("bitdecoder: >Unsync (mismatch)")
			}
		} else {
			d.preamble = 1
			d.state = statePreamble
			if d.verbosity >= 4 {
				logrus.Trace("bitdecoder: >Preamble (mismatch)")
			}
		}

	case stateBitWhole:
		d.bitExp = int(h)
		d.state = stateBitHalf
		if d.verbosity >= 4 {
			logrus.Trace("bitdecoder: >BitHalf")
		}
	}
}

// bitRx processes one fully-received bit. bitNum 0 is the start/stop-or-end
// delimiter bit: 0 begins a new byte, 1 ends the packet. Returns true when a
// complete packet was delivered.
func (d *Decoder) bitRx(bit int) bool {
	if d.verbosity >= 3 {
		logrus.Tracef("bitdecoder: bit=%d", bit)
	}

	switch {
	case d.bitNum == 0:
		if bit == 0 {
			d.bitNum++
			return false
		}
		if d.recv != nil {
			pkt := append([]byte(nil), d.pkt[:d.pktLen]...)
			d.recv(pkt, d.preamble/2, d.startUs, d.badCnt)
		}
		d.bitNum = 0
		d.badCnt = 0
		return true

	case d.bitNum < 8:
		d.byteVal = d.byteVal<<1 | byte(bit)
		d.bitNum++
		return false

	default: // bitNum == 8
		d.byteVal = d.byteVal<<1 | byte(bit)
		if d.verbosity >= 2 {
			logrus.Tracef("bitdecoder: byte=%02x", d.byteVal)
		}
		if d.pktLen < pktMax {
			d.pkt[d.pktLen] = d.byteVal
			d.pktLen++
		}
		d.bitNum = 0
		return false
	}
}
