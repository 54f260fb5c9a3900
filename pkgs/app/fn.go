package app

import "fmt"

// SendFnAction turns a function on or off on a running locomotive. track
// is accepted for CLI symmetry with SendCVAction/ReadCVAction but function
// state only exists in Operations mode, so it's ignored.
func (app *LocoApp) SendFnAction(track string, locoId uint8, fnNum int, on bool) error {
	slot, err := app.ensureOps(locoId)
	if err != nil {
		return err
	}
	return slot.SetFunction(fnNum, on)
}

// ListFnAction prints every function that SendFnAction has turned on for
// the locomotive and not turned off since. There's no "list active functions" query on the
// wire; the controller only tracks what it has itself commanded.
func (app *LocoApp) ListFnAction(locoId uint8) error {
	slot := app.Controller.FindLoco(int(locoId))
	if slot == nil {
		return fmt.Errorf("locomotive %d not found", locoId)
	}

	active := slot.ActiveFunctions()
	if len(active) == 0 {
		app.P.Printf("No active functions\n")
		return nil
	}
	for _, fnNum := range active {
		app.P.Printf("F%d = On\n", fnNum)
	}
	return nil
}
