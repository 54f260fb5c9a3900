package station

import (
	"time"

	"github.com/jdfin/dccstation/pkgs/railcom"
)

// requestOptions configures an on-main CV operation, the functional-options
// pattern used elsewhere for Timeout/Retries/Verify over a RequestContext;
// only Verify carries over here, since on-main ops are fire-and-forget
// unless the caller opts into waiting for a reply.
type requestOptions struct {
	verify     bool
	verifyWait time.Duration
}

// Option configures WriteCVOnMain or ReadCVOnMain.
type Option func(*requestOptions)

const defaultVerifyWait = 200 * time.Millisecond

// Verify requests that the call wait for a RailCom channel-2 reply to the
// queued packet before returning, rather than firing the five-packet burst
// into the rotation and returning immediately.
func Verify(wait bool) Option {
	return func(o *requestOptions) { o.verify = wait }
}

// VerifyWait overrides how long Verify(true) waits for a reply before
// giving up with ErrTimeout. The default is 200ms.
func VerifyWait(d time.Duration) Option {
	return func(o *requestOptions) { o.verifyWait = d }
}

func applyOptions(opts []Option) requestOptions {
	o := requestOptions{verifyWait: defaultVerifyWait}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WriteCVOnMain queues a programming-on-main CV write for address's
// throttle: a CV Access Long Form packet issued by a running throttle in
// Operations mode rather than on the programming track. With Verify(true)
// it blocks until the throttle's next RailCom channel-2 delivery or
// VerifyWait elapses.
func (c *Controller) WriteCVOnMain(address, cv, val int, opts ...Option) error {
	o := applyOptions(opts)
	slot := c.FindLoco(address)
	if slot == nil {
		return ErrNotFound
	}
	gen := slot.RailComGen()
	if err := slot.WriteCV(cv, val); err != nil {
		return err
	}
	if !o.verify {
		return nil
	}
	return waitForRailCom(slot, gen, o.verifyWait, nil)
}

// ReadCVOnMain queues a programming-on-main CV read for address's
// throttle. With Verify(true) (the common case — a read is useless
// without its reply) it blocks for the RailCom Pom reply and returns its
// messages.
func (c *Controller) ReadCVOnMain(address, cv int, opts ...Option) ([]railcom.Msg, error) {
	o := applyOptions(opts)
	slot := c.FindLoco(address)
	if slot == nil {
		return nil, ErrNotFound
	}
	gen := slot.RailComGen()
	if err := slot.ReadCV(cv); err != nil {
		return nil, err
	}
	if !o.verify {
		return nil, nil
	}
	var msgs []railcom.Msg
	err := waitForRailCom(slot, gen, o.verifyWait, &msgs)
	return msgs, err
}

type railComSource interface {
	RailComGen() int
	LastRailCom() []railcom.Msg
}

func waitForRailCom(slot railComSource, sinceGen int, wait time.Duration, out *[]railcom.Msg) error {
	deadline := time.Now().Add(wait)
	for {
		if slot.RailComGen() != sinceGen {
			if out != nil {
				*out = slot.LastRailCom()
			}
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(time.Millisecond)
	}
}
