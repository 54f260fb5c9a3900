// Package currentsensor turns raw ADC samples of track current into the
// short- and long-window moving averages the command controller uses to
// detect Service-mode acks.
package currentsensor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jdfin/dccstation/pkgs/dccspec"
	"github.com/jdfin/dccstation/pkgs/hal"
)

// SampleRate matches the ADC's fixed 10 kHz sampling.
const SampleRate = 10000

// ShortCount and LongCount are the moving-average windows: 16 samples for
// the short average, one full 60 Hz mains cycle at SampleRate for the long
// one.
const (
	ShortCount = 16
	LongCount  = SampleRate / 60
)

// ADC calibration. The board's reference voltage and current-sense shunt
// scaling are hardware-specific and not part of the retrieved source;
// exposed as package variables so a real board can override them before
// the first Start.
var (
	AdcRefMv    uint32 = 3300
	AdcMaxCount uint32 = 4095 // 12-bit ADC
	MvPerMa     uint32 = 10   // shunt/amp scaling: mV measured per mA of track current
)

func rawToMv(raw uint16) uint16 {
	return uint16(uint32(raw) * AdcRefMv / AdcMaxCount)
}

func mvToMa(mv uint16) uint16 {
	if MvPerMa == 0 {
		return 0
	}
	return uint16(uint32(mv) / MvPerMa)
}

// Option configures a Sensor at construction.
type Option func(*Sensor)

// WithLogging enables a 1-second ring buffer of raw samples for post-hoc
// ack-pulse analysis, the runtime-configurable replacement for the
// original's INCLUDE_ADC_LOG compile flag.
func WithLogging() Option {
	return func(s *Sensor) {
		s.logging = true
		s.logBuf = make([]uint16, SampleRate)
	}
}

// Sensor owns one ADC channel's moving averages.
type Sensor struct {
	adc hal.AdcSampler

	mu     sync.Mutex
	buf    [LongCount]uint16
	idx    int
	filled int

	logging bool
	logBuf  []uint16
	logIdx  int

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Sensor reading from adc.
func New(adc hal.AdcSampler, opts ...Option) *Sensor {
	s := &Sensor{adc: adc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins sampling. Samples are drained by an internal goroutine; call
// Stop to release it.
func (s *Sensor) Start() {
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.adc.Start()
	go s.loop(s.adc.Samples())
}

// Stop halts sampling and waits for the drain goroutine to exit.
func (s *Sensor) Stop() {
	s.adc.Stop()
	if s.stopCh != nil {
		close(s.stopCh)
		<-s.doneCh
		s.stopCh = nil
	}
}

func (s *Sensor) loop(samples <-chan uint16) {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		case raw, ok := <-samples:
			if !ok {
				return
			}
			s.ingest(raw)
		}
	}
}

func (s *Sensor) ingest(raw uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[s.idx] = raw
	s.idx = (s.idx + 1) % LongCount
	if s.filled < LongCount {
		s.filled++
	}

	if s.logging {
		s.logBuf[s.logIdx] = raw
		s.logIdx = (s.logIdx + 1) % len(s.logBuf)
	}
}

// avgRaw averages the most recent cnt samples (fewer if the buffer hasn't
// filled that far yet).
func (s *Sensor) avgRaw(cnt int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := cnt
	if n > s.filled {
		n = s.filled
	}
	if n == 0 {
		return 0
	}
	var sum uint32
	idx := s.idx
	for i := 0; i < n; i++ {
		idx = (idx - 1 + LongCount) % LongCount
		sum += uint32(s.buf[idx])
	}
	return uint16(sum / uint32(n))
}

// ShortMa returns the short-window current average in milliamps.
func (s *Sensor) ShortMa() uint16 {
	return mvToMa(rawToMv(s.avgRaw(ShortCount)))
}

// LongMa returns the long-window (one 60 Hz cycle) current average in
// milliamps.
func (s *Sensor) LongMa() uint16 {
	return mvToMa(rawToMv(s.avgRaw(LongCount)))
}

// AckThresholdMa is the adaptive Service-mode ack-detection threshold:
// the long average plus dccspec.AckIncMa.
func (s *Sensor) AckThresholdMa() uint16 {
	return s.LongMa() + dccspec.AckIncMa
}

// Logging reports whether the ack-pulse ring buffer is enabled. pkgs/station
// uses this to decide whether a Service-mode ack should stop packet
// transmission immediately or keep sending so the buffer captures the full
// pulse, matching the original's INCLUDE_ADC_LOG behavior.
func (s *Sensor) Logging() bool {
	return s.logging
}

// LogReset clears the logging ring buffer. A no-op if logging wasn't
// enabled.
func (s *Sensor) LogReset() {
	if !s.logging {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.logBuf {
		s.logBuf[i] = 0
	}
	s.logIdx = 0
	logrus.Debug("currentsensor: log reset")
}

// LogShow renders the logging ring buffer as space-separated raw sample
// values, oldest first. Empty if logging wasn't enabled.
func (s *Sensor) LogShow() string {
	if !s.logging {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var sb strings.Builder
	for i, v := range s.logBuf {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", v)
	}
	return sb.String()
}
