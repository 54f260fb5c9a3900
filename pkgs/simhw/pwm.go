// Package simhw is a software stand-in for the pkgs/hal interfaces, so the
// signal/receive/service-mode engine can run (and be driven from pkgs/cli)
// without a real PWM slice, GPIO pin, UART, or ADC behind it: a concrete
// backend behind each collaborator interface, simulating local hardware
// with goroutines and timers instead of driving real pins.
package simhw

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Pwm simulates the board's double-buffered PWM slice: SetPeriodUs and
// SetChannelDuty only ever write the "next" shadow values; a background
// goroutine commits them to "current" once per simulated wrap, right
// before calling the registered handler, so a handler's own writes affect
// the wrap after next — exactly like the real double-buffered hardware.
type Pwm struct {
	mu sync.Mutex

	periodUs uint32
	duty     [2]uint32

	nextPeriodUs uint32
	nextDuty     [2]uint32

	enabled bool
	handler func()

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPwm builds an idle, disabled Pwm.
func NewPwm() *Pwm {
	return &Pwm{nextPeriodUs: 1000}
}

func (p *Pwm) SetPeriodUs(us uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextPeriodUs = us
}

func (p *Pwm) SetChannelDuty(channel int, duty uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if channel < 0 || channel > 1 {
		return
	}
	p.nextDuty[channel] = duty
}

// OnWrap registers the wrap handler. pkgs/bitstream calls this once, at
// construction.
func (p *Pwm) OnWrap(handler func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = handler
}

// Enable starts or stops the simulated wrap goroutine.
func (p *Pwm) Enable(on bool) {
	p.mu.Lock()
	was := p.enabled
	p.enabled = on
	p.mu.Unlock()

	if on && !was {
		p.start()
	} else if !on && was {
		p.stop()
	}
}

func (p *Pwm) start() {
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.run(p.stopCh, p.doneCh)
}

func (p *Pwm) stop() {
	if p.stopCh == nil {
		return
	}
	close(p.stopCh)
	<-p.doneCh
	p.stopCh = nil
}

func (p *Pwm) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		p.mu.Lock()
		period := p.periodUs
		handler := p.handler
		p.mu.Unlock()
		if period == 0 {
			period = 1000
		}

		select {
		case <-stopCh:
			return
		case <-time.After(time.Duration(period) * time.Microsecond):
		}

		p.mu.Lock()
		p.periodUs = p.nextPeriodUs
		p.duty = p.nextDuty
		p.mu.Unlock()

		if handler != nil {
			handler()
		}
	}
}

// snapshot reports the currently-committed period and channel duties, for
// anything that wants to render the simulated signal (e.g. a CLI
// diagnostic command). Not part of hal.Pwm.
func (p *Pwm) snapshot() (periodUs uint32, duty [2]uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.periodUs, p.duty
}

// Describe logs the currently-committed PWM state at debug level.
func (p *Pwm) Describe() {
	periodUs, duty := p.snapshot()
	logrus.WithFields(logrus.Fields{
		"period_us": periodUs,
		"sig_duty":  duty[0],
		"en_duty":   duty[1],
	}).Debug("simhw: pwm state")
}
