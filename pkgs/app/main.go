package app

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdfin/dccstation/pkgs/bitstream"
	"github.com/jdfin/dccstation/pkgs/config"
	"github.com/jdfin/dccstation/pkgs/currentsensor"
	"github.com/jdfin/dccstation/pkgs/output"
	"github.com/jdfin/dccstation/pkgs/railcom"
	"github.com/jdfin/dccstation/pkgs/simhw"
	"github.com/jdfin/dccstation/pkgs/station"
)

// loopInterval is how often Initialize's background goroutine calls
// Controller.Loop. It must be comfortably shorter than a DCC half-bit
// (58us at minimum) so packet feeding and Service-mode ack detection never
// starve; simhw's sampler runs at 10kHz regardless of how often Loop is
// called, so this only bounds latency, not correctness.
const loopInterval = 20 * time.Microsecond

// LocoApp is the action layer: everything a CLI command needs to perform
// a single user-facing operation, with all output going through Printer
// so the cli package stays free of fmt.Print calls.
type LocoApp struct {
	Config     *config.Configuration
	Controller *station.Controller

	pwm  *simhw.Pwm
	adc  *simhw.Adc
	loop chan struct{}
	done chan struct{}

	// runtime parameters
	Debug bool
	P     output.Printer
}

// Initialize is run after parsing the arguments, so we know how to
// configure the app. It builds the hal backend (pkgs/simhw, until real
// pkgs/hal implementations exist for a target board), wires it into a
// station.Controller, and starts the background Loop goroutine.
func (app *LocoApp) Initialize() error {
	if app.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.Debug("Reading configuration files")
	cfg, cfgErr := config.NewConfig()
	app.Config = cfg
	if cfgErr != nil {
		return fmt.Errorf("cannot initialize app: %s", cfgErr)
	}

	logrus.Debug("Initializing simulated hardware backend")
	pwm := simhw.NewPwm()
	power := simhw.NewGpio("pwr")
	uart := simhw.NewUart()
	adc := simhw.NewAdc(0)

	tx := bitstream.New(pwm, power, uart, railcom.Era2021)
	sensor := currentsensor.New(adc)
	app.Controller = station.New(tx, sensor)
	app.pwm = pwm
	app.adc = adc

	sensor.Start()
	app.loop = make(chan struct{})
	app.done = make(chan struct{})
	go app.runLoop()

	return nil
}

func (app *LocoApp) runLoop() {
	defer close(app.done)
	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()
	for {
		select {
		case <-app.loop:
			return
		case <-ticker.C:
			app.Controller.Loop()
		}
	}
}

// CleanUp halts track power and stops the background Loop goroutine. It is
// safe to call after a failed Initialize.
func (app *LocoApp) CleanUp() {
	if app.Controller != nil {
		app.Controller.SetModeOff()
	}
	if app.adc != nil {
		app.adc.Stop()
	}
	if app.loop != nil {
		close(app.loop)
		<-app.done
	}
}
