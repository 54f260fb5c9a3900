// Package throttle implements one locomotive's command-station state: its
// address, speed, function bits, and any programming-on-main operation in
// progress, plus the packet rotation that feeds the transmitter.
package throttle

import (
	"errors"
	"sync"

	"github.com/jdfin/dccstation/pkgs/dccpkt"
	"github.com/jdfin/dccstation/pkgs/railcom"
)

// ErrInvalidArgument is returned for an out-of-range address, function
// number, CV number, or bit index.
var ErrInvalidArgument = errors.New("throttle: invalid argument")

const (
	addressMin = 1
	addressMax = 10239
)

// funcGroup pairs a function-group packet type with the lowest function
// number it carries and how many functions it carries.
type funcGroup struct {
	base  int
	width int
	typ   dccpkt.Type
}

// allGroups is every function group in ascending order. F0/F5/F9 use
// base 0/5/9 even though they're single-byte groups, so the same
// base-vs-FuncMax comparison used for the two-byte high groups also
// decides whether they're included.
var allGroups = []funcGroup{
	{0, 5, dccpkt.Func0},
	{5, 4, dccpkt.Func5},
	{9, 4, dccpkt.Func9},
	{13, 8, dccpkt.Func13},
	{21, 8, dccpkt.Func21},
	{29, 8, dccpkt.Func29},
	{37, 8, dccpkt.Func37},
	{45, 8, dccpkt.Func45},
	{53, 8, dccpkt.Func53},
	{61, 8, dccpkt.Func61},
}

const (
	cvSendCount = 5 // on-main CV ops pre-empt rotation for 5 emissions
	numFuncs    = 69
)

// Slot is one locomotive's command-station state: address, speed,
// function bits, and any on-main CV operation queued ahead of the normal
// rotation.
type Slot struct {
	mu sync.Mutex

	address int
	funcMax int
	groups  []funcGroup // active groups, ordered, recomputed when funcMax changes

	speed    int
	funcBits [numFuncs]bool

	seq int // index into groups*2 (even=speed, odd=function group)

	writeCvPkt   dccpkt.Packet
	writeCvLeft  int
	writeBitPkt  dccpkt.Packet
	writeBitLeft int
	readCvPkt    dccpkt.Packet
	readCvLeft   int

	lastRailCom []railcom.Msg
	railComGen  int // bumped on every DeliverRailCom, so a waiter can detect a fresh reply
}

// New builds a Slot for address with the given highest supported function
// number (4 for F0-F4 only, or one of 13/21/29/37/45/53/61/68 to include
// progressively higher two-byte function groups — see SPEC_FULL.md §4.6).
func New(address, funcMax int) (*Slot, error) {
	s := &Slot{}
	if err := s.SetAddress(address); err != nil {
		return nil, err
	}
	s.SetFuncMax(funcMax)
	return s, nil
}

// SetFuncMax changes which function groups participate in the rotation.
// Unused groups simply never appear; any function bits already set in a
// group that becomes unavailable are retained but won't be sent until the
// group is re-enabled.
func (s *Slot) SetFuncMax(funcMax int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcMax = funcMax
	s.groups = s.groups[:0]
	for _, g := range allGroups {
		if funcMax >= g.base {
			s.groups = append(s.groups, g)
		}
	}
	s.seq = 0
}

// SetAddress changes the locomotive address. All packet construction uses
// it from this point on; the rotation restarts at the speed slot.
func (s *Slot) SetAddress(address int) error {
	if address < addressMin || address > addressMax {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
	s.seq = 0
	return nil
}

// SetSpeed changes the locomotive's speed and direction (-127..127,
// negative is reverse). The rotation rewinds to the speed slot so the new
// speed goes out next.
func (s *Slot) SetSpeed(speed int) error {
	if speed < -127 || speed > 127 {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = speed
	s.seq &^= 1 // round down to the nearest even (speed) slot
	return nil
}

// SetFunction turns function num on or off and jumps the rotation to that
// function's group so the change goes out promptly.
func (s *Slot) SetFunction(num int, on bool) error {
	if num < 0 || num >= numFuncs {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcBits[num] = on
	for i, g := range s.groups {
		if num >= g.base && num < g.base+g.width {
			s.seq = 2*i + 1
			return nil
		}
	}
	return nil
}

// WriteCV queues 5 CV Access Long Form write-byte packets ahead of the
// rotation.
func (s *Slot) WriteCV(cv, val int) error {
	pkt, err := dccpkt.NewCVWriteByte(s.addressSnapshot(), cv, val)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCvPkt = pkt
	s.writeCvLeft = cvSendCount
	return nil
}

// WriteBit queues 5 CV Access Long Form bit-manipulation write packets
// ahead of the rotation.
func (s *Slot) WriteBit(cv, bitIdx, val int) error {
	pkt, err := dccpkt.NewCVBitManip(s.addressSnapshot(), cv, bitIdx, val)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeBitPkt = pkt
	s.writeBitLeft = cvSendCount
	return nil
}

// ReadCV queues 5 CV Access Long Form verify-byte packets ahead of the
// rotation. The value field is a don't-care on the wire; the actual CV
// value comes back as a RailCom POM reply delivered to DeliverRailCom.
func (s *Slot) ReadCV(cv int) error {
	pkt, err := dccpkt.NewCVVerifyByte(s.addressSnapshot(), cv, 0)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCvPkt = pkt
	s.readCvLeft = cvSendCount
	return nil
}

func (s *Slot) addressSnapshot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// NextPacket returns the next packet to transmit and advances the
// rotation: queued on-main CV operations pre-empt it, then speed and
// function groups alternate.
func (s *Slot) NextPacket() (dccpkt.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeCvLeft > 0 {
		s.writeCvLeft--
		return s.writeCvPkt, nil
	}
	if s.writeBitLeft > 0 {
		s.writeBitLeft--
		return s.writeBitPkt, nil
	}
	if s.readCvLeft > 0 {
		s.readCvLeft--
		return s.readCvPkt, nil
	}

	if len(s.groups) == 0 {
		return dccpkt.Packet{}, ErrInvalidArgument
	}

	seqMax := 2 * len(s.groups)
	seq := s.seq
	s.seq++
	if s.seq >= seqMax {
		s.seq = 0
	}

	if seq%2 == 0 {
		return dccpkt.NewSpeed128(s.address, s.speed)
	}

	g := s.groups[seq/2]
	switch g.typ {
	case dccpkt.Func0:
		return dccpkt.NewFunc0(s.address, s.funcBits[0], s.funcBits[1], s.funcBits[2], s.funcBits[3], s.funcBits[4])
	case dccpkt.Func5:
		return dccpkt.NewFunc5(s.address, s.funcBits[5], s.funcBits[6], s.funcBits[7], s.funcBits[8])
	case dccpkt.Func9:
		return dccpkt.NewFunc9(s.address, s.funcBits[9], s.funcBits[10], s.funcBits[11], s.funcBits[12])
	default:
		var bits [8]bool
		for i := range bits {
			bits[i] = s.funcBits[g.base+i]
		}
		return newHighGroup(g.typ, s.address, bits)
	}
}

func newHighGroup(t dccpkt.Type, address int, bits [8]bool) (dccpkt.Packet, error) {
	switch t {
	case dccpkt.Func13:
		return dccpkt.NewFunc13(address, bits)
	case dccpkt.Func21:
		return dccpkt.NewFunc21(address, bits)
	case dccpkt.Func29:
		return dccpkt.NewFunc29(address, bits)
	case dccpkt.Func37:
		return dccpkt.NewFunc37(address, bits)
	case dccpkt.Func45:
		return dccpkt.NewFunc45(address, bits)
	case dccpkt.Func53:
		return dccpkt.NewFunc53(address, bits)
	default:
		return dccpkt.NewFunc61(address, bits)
	}
}

// DeliverRailCom receives parsed channel-2 messages that followed one of
// this slot's own packets. pkgs/bitstream calls this via the Originator
// handle it tagged the packet with.
func (s *Slot) DeliverRailCom(msgs []railcom.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRailCom = append([]railcom.Msg(nil), msgs...)
	s.railComGen++
}

// RailComGen returns a counter bumped on every DeliverRailCom call. A caller
// waiting for a specific reply (pkgs/station's on-main verify) snapshots
// this before sending and polls for it to change, rather than guessing at
// slice identity.
func (s *Slot) RailComGen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.railComGen
}

// LastRailCom returns the most recent batch of channel-2 messages
// delivered to this slot, or nil if none has arrived yet.
func (s *Slot) LastRailCom() []railcom.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRailCom
}

// Address returns the slot's current locomotive address.
func (s *Slot) Address() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// Speed returns the slot's current signed speed (-127..127, negative is
// reverse).
func (s *Slot) Speed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// ActiveFunctions returns, in ascending order, every function number this
// slot currently has turned on.
func (s *Slot) ActiveFunctions() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []int
	for i, on := range s.funcBits {
		if on {
			active = append(active, i)
		}
	}
	return active
}
