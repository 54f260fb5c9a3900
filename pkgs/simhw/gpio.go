package simhw

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Gpio simulates a single digital pin (track-power enable or sleep/reset).
type Gpio struct {
	name string

	mu  sync.Mutex
	out bool
	hi  bool
}

// NewGpio builds a Gpio for logging purposes only; name should identify
// which physical pin it stands in for (e.g. "pwr", "slp").
func NewGpio(name string) *Gpio {
	return &Gpio{name: name}
}

func (g *Gpio) Init() {
	logrus.WithField("pin", g.name).Debug("simhw: gpio init")
}

func (g *Gpio) SetDirection(out bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out = out
}

func (g *Gpio) Write(high bool) {
	g.mu.Lock()
	g.hi = high
	g.mu.Unlock()
	logrus.WithFields(logrus.Fields{"pin": g.name, "high": high}).Trace("simhw: gpio write")
}

// High reports the pin's last written level. Not part of hal.Gpio.
func (g *Gpio) High() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hi
}
