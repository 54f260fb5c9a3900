package app

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdfin/dccstation/pkgs/railcom"
	"github.com/jdfin/dccstation/pkgs/station"
	"github.com/jdfin/dccstation/pkgs/syntax"
)

// pollSvc blocks until the controller's in-progress Service operation
// finishes or timeout elapses, returning its result.
func pollSvc(app *LocoApp, timeout time.Duration) (result bool, val byte, err error) {
	deadline := time.Now().Add(timeout)
	for {
		done, ok, v := app.Controller.SvcDoneValue()
		if done {
			return ok, v, nil
		}
		if time.Now().After(deadline) {
			app.Controller.SetModeOff()
			return false, 0, fmt.Errorf("service operation timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

// SendCVAction writes one or more CVs to a decoder, either on the
// programming track (Service mode) or on-main (a running locomotive in
// Operations mode), depending on track.
func (app *LocoApp) SendCVAction(track string, locoId uint8, cvNumRaw string, verify bool, timeout time.Duration, settle time.Duration) error {
	entries, parseErr := syntax.ParseCVString(cvNumRaw, ",")
	if parseErr != nil {
		return parseErr
	}

	for _, entry := range entries {
		var writeErr error
		if track == "prog" {
			writeErr = app.writeCVService(int(entry.Number), int(entry.Value), timeout)
		} else {
			writeErr = app.Controller.WriteCVOnMain(int(locoId), int(entry.Number), int(entry.Value),
				station.Verify(verify), station.VerifyWait(timeout))
		}
		time.Sleep(settle)
		if writeErr != nil {
			return writeErr
		}
	}

	return nil
}

func (app *LocoApp) writeCVService(cv, val int, timeout time.Duration) error {
	if err := app.Controller.WriteCV(cv, val); err != nil {
		return err
	}
	ok, _, err := pollSvc(app, timeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cv%d write not acknowledged", cv)
	}
	return nil
}

// ReadCVAction reads one or more CVs from a decoder, either on the
// programming track or on-main, printing each result through Printer.
func (app *LocoApp) ReadCVAction(track string, locoId uint8, cvNumRaw string, verify bool, timeout time.Duration, retries uint8) error {
	entries, parseErr := syntax.ParseCVString(cvNumRaw, ",")
	if parseErr != nil {
		return fmt.Errorf("invalid format: %s", cvNumRaw)
	}

	var lastError error
	for _, entry := range entries {
		var result uint16
		var err error
		for attempt := uint8(0); ; attempt++ {
			if track == "prog" {
				result, err = app.readCVService(int(entry.Number), timeout)
			} else {
				result, err = app.readCVOnMain(locoId, int(entry.Number), verify, timeout)
			}
			if err == nil || attempt >= retries {
				break
			}
			logrus.WithError(err).Debug("app: cv read attempt failed, retrying")
		}

		if len(entries) > 1 {
			if err != nil {
				app.P.Printf("cv%d=ERROR\n", entry.Number)
				logrus.Error(err)
				lastError = err
			} else {
				app.P.Printf("cv%d=%d\n", entry.Number, result)
			}
		} else {
			if err != nil {
				return err
			}
			app.P.Printf("%d\n", result)
		}
	}
	return lastError
}

func (app *LocoApp) readCVService(cv int, timeout time.Duration) (uint16, error) {
	if err := app.Controller.ReadCV(cv); err != nil {
		return 0, err
	}
	ok, val, err := pollSvc(app, timeout)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("cv%d verify not acknowledged", cv)
	}
	return uint16(val), nil
}

func (app *LocoApp) readCVOnMain(locoId uint8, cv int, verify bool, timeout time.Duration) (uint16, error) {
	msgs, err := app.Controller.ReadCVOnMain(int(locoId), cv, station.Verify(true), station.VerifyWait(timeout))
	if err != nil {
		return 0, err
	}
	for _, m := range msgs {
		if m.ID == railcom.Pom {
			return uint16(m.Val), nil
		}
	}
	return 0, fmt.Errorf("no Pom reply for cv%d", cv)
}
