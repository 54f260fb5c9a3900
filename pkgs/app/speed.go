package app

import (
	"fmt"

	"github.com/jdfin/dccstation/pkgs/station"
	"github.com/jdfin/dccstation/pkgs/throttle"
)

// defaultFuncMax is used for a locomotive with no loco.json override.
const defaultFuncMax = 28

func (app *LocoApp) funcMaxFor(address uint8) int {
	if app.Config != nil && app.Config.Loco.LocoAddr == uint16(address) && app.Config.Loco.FuncMax > 0 {
		return int(app.Config.Loco.FuncMax)
	}
	return defaultFuncMax
}

// ensureOps makes sure the controller is running in Operations mode so the
// background Loop picks up the throttle rotation, and returns the
// requested locomotive's slot, creating it if necessary.
func (app *LocoApp) ensureOps(address uint8) (*throttle.Slot, error) {
	if app.Controller.Mode() != station.ModeOps {
		app.Controller.SetModeOps(true)
	}
	slot, err := app.Controller.CreateLoco(int(address), app.funcMaxFor(address))
	if err != nil {
		return nil, fmt.Errorf("cannot select locomotive %d: %w", address, err)
	}
	return slot, nil
}

// SetSpeedAction sets the speed and direction of a locomotive. speedSteps
// is accepted for CLI compatibility but the 128-speed-step packet form is
// used regardless, per dccpkt.NewSpeed128.
func (app *LocoApp) SetSpeedAction(locoId uint8, speed uint8, forward bool, speedSteps uint8) error {
	slot, err := app.ensureOps(locoId)
	if err != nil {
		return err
	}
	value := int(speed)
	if !forward {
		value = -value
	}
	return slot.SetSpeed(value)
}

// GetSpeedAction retrieves the current speed and direction of a
// locomotive. Direction and magnitude share throttle.Slot's signed speed
// encoding (negative is reverse).
func (app *LocoApp) GetSpeedAction(locoId uint8) (speed uint8, forward bool, err error) {
	slot := app.Controller.FindLoco(int(locoId))
	if slot == nil {
		return 0, false, fmt.Errorf("locomotive %d not found", locoId)
	}
	raw := slot.Speed()
	if raw < 0 {
		return uint8(-raw), false, nil
	}
	return uint8(raw), true, nil
}
