// Package hal defines the collaborator interfaces between the signal-timing
// core (bitdecoder, bitstream, currentsensor) and the device they drive.
// On embedded pico-sdk firmware these are backed by PWM slices, GPIO pins,
// a UART, and the ADC; pkgs/simhw backs them with goroutines and timers for
// development and test.
package hal

// Pwm drives the DCC signal pin. The original fires one hardware interrupt
// per PWM wrap (period boundary) from dcc_bitstream.h's pwm_handler; Go has
// no interrupt, so OnWrap registers a callback invoked on every wrap
// instead. SetPeriodUs/SetChannelDuty change the *next* wrap's timing, not
// the one in progress, matching the double-buffered wrap/level registers
// the original relies on (prog_bit sets wrap and level together, and the
// pico-sdk PWM hardware only latches them at the next wrap).
type Pwm interface {
	SetPeriodUs(us uint32)
	SetChannelDuty(channel int, duty uint32)
	Enable(on bool)
	OnWrap(handler func())
}

// Gpio is a single digital pin, used for the track power enable and the
// optional sleep/standby line.
type Gpio interface {
	Init()
	SetDirection(out bool)
	Write(high bool)
}

// Uart is the RailCom receive line. Init must be called with
// dccspec.RailComBaud; Readable/ReadByte poll rather than block, since the
// cutout window during which bytes can arrive is only a few hundred
// microseconds wide and the caller times it against the bitstream's own
// schedule rather than a read deadline.
type Uart interface {
	Init(baud uint32) error
	Deinit()
	Readable() bool
	ReadByte() (byte, error)
}

// AdcSampler delivers hardware-timed current-sense samples. The original
// times ADC conversions off the same 48 MHz clock as the PWM slices
// (dcc_adc.h: clock_rate=48000000, sample_rate=10000) so sampling jitter
// doesn't alias with the DCC bit timing; Samples is the channel-based
// rendering of that fixed-rate feed.
type AdcSampler interface {
	Start()
	Stop()
	Samples() <-chan uint16
}
