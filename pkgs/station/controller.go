// Package station implements the command controller: the mode state
// machine (Off/Ops/Svc), the locomotive throttle registry and its
// round-robin dispatch, and the Service-mode write/read-CV/read-bit
// protocols, all driven from repeated calls to Loop.
package station

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jdfin/dccstation/pkgs/bitstream"
	"github.com/jdfin/dccstation/pkgs/currentsensor"
	"github.com/jdfin/dccstation/pkgs/dccpkt"
	"github.com/jdfin/dccstation/pkgs/throttle"
)

var (
	// ErrBusy is returned by a Service request method while another
	// Service operation is already in progress.
	ErrBusy = errors.New("station: service operation already in progress")
	// ErrNotFound is returned for an address with no registered throttle.
	ErrNotFound = errors.New("station: locomotive not found")
	// ErrTimeout is returned by an on-main verify wait that didn't see a
	// fresh RailCom reply before its deadline.
	ErrTimeout = errors.New("station: railcom verify timed out")
)

// Controller owns one command station's mode, throttle registry, and
// in-progress Service operation. It does no I/O of its own: Loop must be
// called often enough to keep the transmitter fed (at DCC bit rate, not
// once per UI tick).
type Controller struct {
	mu sync.Mutex

	tx     *bitstream.Tx
	sensor *currentsensor.Sensor

	mode Mode

	throttles []*throttle.Slot
	rrIdx     int

	svcState   SvcState
	svcWindows []svcWindow
	svcWinIdx  int
	svcStepIdx int
	svcAck     bool
	svcThresh  uint16
	svcCvVal   byte

	svcResultReady bool
	svcResult      bool
	svcResultVal   byte
}

// New builds a Controller driving tx and reading ack current from sensor.
// Both must already exist; Controller does not own their lifecycle beyond
// starting/stopping transmission on mode changes.
func New(tx *bitstream.Tx, sensor *currentsensor.Sensor) *Controller {
	return &Controller{tx: tx, sensor: sensor}
}

// Mode returns the controller's current top-level mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ServiceState returns the Service sub-state, meaningful only while Mode
// reports ModeSvc.
func (c *Controller) ServiceState() SvcState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.svcState
}

// SetModeOff halts transmission and drops track power. Any Service
// operation in progress is abandoned without a result.
func (c *Controller) SetModeOff() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setModeOffLocked()
}

func (c *Controller) setModeOffLocked() {
	c.tx.Stop()
	c.mode = ModeOff
	c.svcState = SvcNone
	c.svcWindows = nil
}

// SetModeOps begins Operations-mode transmission and throttle rotation.
// railcomEnabled controls whether the bitstream cuts out for RailCom
// between packets. Any Service operation in progress is abandoned without
// a result.
func (c *Controller) SetModeOps(railcomEnabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.svcState = SvcNone
	c.svcWindows = nil
	c.mode = ModeOps
	c.tx.StartOps(railcomEnabled)
}

// Loop drives the state machine forward one step: in ModeOps it feeds the
// transmitter from the throttle rotation when it needs a packet; in
// ModeSvc it advances the Service protocol. Call this often and regularly
// — the original ran it from a tight polling loop, and the ack window
// detection depends on being called at least once per current-sample
// period.
func (c *Controller) Loop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModeOps:
		c.loopOpsLocked()
	case ModeSvc:
		c.tickSvcLocked()
	}
}

func (c *Controller) loopOpsLocked() {
	if !c.tx.NeedPacket() {
		return
	}
	pkt, orig := c.nextOpsPacketLocked()
	c.tx.SendPacket(pkt, orig)
}

// nextOpsPacketLocked picks the packet for this Operations-mode slot: an
// empty registry sends Idle with no originator, otherwise the round-robin
// pointer advances and that throttle's next packet is stamped with itself
// as originator so any RailCom channel-2 reply routes back to it.
func (c *Controller) nextOpsPacketLocked() (dccpkt.Packet, bitstream.Originator) {
	if len(c.throttles) == 0 {
		return dccpkt.NewIdle(), nil
	}
	c.rrIdx = (c.rrIdx + 1) % len(c.throttles)
	slot := c.throttles[c.rrIdx]
	pkt, err := slot.NextPacket()
	if err != nil {
		logrus.WithError(err).Warn("station: throttle rotation produced no packet, sending Idle")
		return dccpkt.NewIdle(), nil
	}
	return pkt, slot
}
