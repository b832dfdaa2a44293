package chippy

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/fistaco/rustychippydragoman/chippy/audio"
	"github.com/fistaco/rustychippydragoman/chippy/backend"
	"github.com/fistaco/rustychippydragoman/chippy/input/action"
	"github.com/fistaco/rustychippydragoman/chippy/input/event"
	"github.com/fistaco/rustychippydragoman/chippy/timing"
)

// runner is the host side frame loop state.
type runner struct {
	emu     *Emulator
	paused  bool
	stepOne bool
	quit    bool
}

// Run drives emu until the backend asks to quit or the interpreter fails.
// Every frame it waits on limiter, emulates one frame (unless paused), hands
// the beeper state to sink and the framebuffer to b, and feeds the events b
// returns into the emulator's input manager. Run initialises and cleans up
// b; closing sink is left to the caller. An emulator may be run again after
// Run returns, starting unpaused.
func Run(emu *Emulator, b backend.Backend, config backend.BackendConfig, limiter timing.Limiter, sink audio.Sink) (err error) {
	if err := b.Init(config); err != nil {
		return errors.Wrap(err, "initialising backend")
	}
	defer func() {
		if cerr := b.Cleanup(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "cleaning up backend")
		}
	}()

	r := emu.runner()
	limiter.Reset()

	for !r.quit {
		limiter.WaitForNextFrame()

		if err := r.frame(sink); err != nil {
			slog.Error("Emulation halted",
				"frame", emu.Frames(),
				"opcode", fmt.Sprintf("0x%04X", emu.CPU().CurrentOpcode()),
				"cpu", emu.CPU().String(),
				"error", err)
			return errors.Wrapf(err, "frame %d", emu.Frames())
		}

		events, err := b.Update(emu.GetCurrentFrame())
		if err != nil {
			return errors.Wrap(err, "updating backend")
		}
		for _, evt := range events {
			emu.Input().Trigger(evt.Action, evt.Type)
		}
	}

	slog.Info("Emulation stopped", "frames", emu.Frames(), "instructions", emu.CPU().Instructions())
	return nil
}

// frame emulates one frame unless paused. A single step request runs one
// frame while paused.
func (r *runner) frame(sink audio.Sink) error {
	if r.paused && !r.stepOne {
		sink.SetBeep(false)
		return nil
	}
	r.stepOne = false

	if err := r.emu.RunUntilFrame(); err != nil {
		sink.SetBeep(false)
		return err
	}
	sink.SetBeep(r.emu.Beeping())
	return nil
}

// runner returns the emulator's loop state, binding the emulator actions on
// first use so repeated Runs don't stack callbacks.
func (e *Emulator) runner() *runner {
	if e.host == nil {
		e.host = &runner{emu: e}
		e.host.bindActions()
	}
	e.host.paused, e.host.stepOne, e.host.quit = false, false, false
	return e.host
}

func (r *runner) bindActions() {
	in := r.emu.Input()

	in.On(action.EmulatorQuit, event.Press, func() {
		r.quit = true
	})
	in.On(action.EmulatorPauseToggle, event.Press, func() {
		r.paused = !r.paused
		slog.Info("Pause toggled", "paused", r.paused)
	})
	in.On(action.EmulatorStepFrame, event.Press, func() {
		r.paused = true
		r.stepOne = true
	})
	in.On(action.EmulatorReset, event.Press, func() {
		if err := r.emu.Reset(); err != nil {
			slog.Error("Reset failed", "error", err)
		}
	})
}
