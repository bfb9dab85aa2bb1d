package dispatch

import (
	"fmt"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/protocol"
)

var defaultHandlers = map[device.Kind]Handler{
	device.KindLight:          handleLight,
	device.KindTV:             handleTV,
	device.KindAC:             handleAC,
	device.KindFridge:         handleFridge,
	device.KindInduction:      handleInduction,
	device.KindWashingMachine: handleWashingMachine,
	device.KindFan:            handleFan,
}

// mutate resolves the target and runs fn on it under the registry lock.
func mutate[T device.Device](reg *device.Registry, cause device.Cause, cmd protocol.Command, fn func(T) (string, error)) (device.Entry, string, error) {
	var msg string
	entry, err := reg.Apply(cause, cmd.Device, cmd.DeviceIndex, func(d device.Device) error {
		target, ok := d.(T)
		if !ok {
			return fmt.Errorf("%s handler cannot drive %T", cmd.Device, d)
		}
		m, err := fn(target)
		msg = m
		return err
	})
	return entry, msg, err
}

// togglePower flips a Switchable unless an explicit state is given.
func togglePower(s device.Switchable, args protocol.Args) string {
	on := args.BoolOr("state", !s.IsOn())
	s.SetPower(on)
	return fmt.Sprintf("%s turned %s", s.Kind(), onOff(on))
}

func handleLight(reg *device.Registry, cause device.Cause, cmd protocol.Command) (device.Entry, string, error) {
	return mutate(reg, cause, cmd, func(l *device.Light) (string, error) {
		switch cmd.Action {
		case protocol.ActionToggle:
			return togglePower(l, cmd.Args), nil
		case protocol.ActionSetIntensity:
			v, err := floatArg(cmd, "intensity")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Light intensity set to %.2f", l.SetIntensity(v)), nil
		case protocol.ActionSetColor:
			v, err := stringArg(cmd, "color")
			if err != nil {
				return "", err
			}
			c, err := l.SetColor(v)
			if err != nil {
				return "", err
			}
			return "Light color set to #" + c, nil
		}
		return "", unknownAction(cmd)
	})
}

func handleTV(reg *device.Registry, cause device.Cause, cmd protocol.Command) (device.Entry, string, error) {
	return mutate(reg, cause, cmd, func(tv *device.TV) (string, error) {
		switch cmd.Action {
		case protocol.ActionToggle:
			return togglePower(tv, cmd.Args), nil
		case protocol.ActionSetVolume:
			v, err := intArg(cmd, "volume")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("TV volume set to %d", tv.SetVolume(v)), nil
		case protocol.ActionSetChannel:
			v, err := intArg(cmd, "channel")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("TV channel set to %d", tv.SetChannel(v)), nil
		case protocol.ActionSetSource:
			v, err := stringArg(cmd, "source")
			if err != nil {
				return "", err
			}
			src, err := tv.SetSource(v)
			if err != nil {
				return "", err
			}
			return "TV source set to " + src, nil
		}
		return "", unknownAction(cmd)
	})
}

func handleAC(reg *device.Registry, cause device.Cause, cmd protocol.Command) (device.Entry, string, error) {
	return mutate(reg, cause, cmd, func(ac *device.AC) (string, error) {
		switch cmd.Action {
		case protocol.ActionToggle:
			return togglePower(ac, cmd.Args), nil
		case protocol.ActionSetTemperature:
			v, err := intArg(cmd, "temperature")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("AC temperature set to %d°C", ac.SetTemperature(v)), nil
		case protocol.ActionSetFanSpeed:
			v, err := intArg(cmd, "speed")
			if err != nil {
				return "", err
			}
			speed, err := ac.SetFanSpeed(v)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("AC fan speed set to %d", speed), nil
		case protocol.ActionToggleEco:
			on := cmd.Args.BoolOr("eco", !ac.EcoMode())
			ac.SetEcoMode(on)
			return "AC eco mode " + onOff(on), nil
		}
		return "", unknownAction(cmd)
	})
}

func handleFridge(reg *device.Registry, cause device.Cause, cmd protocol.Command) (device.Entry, string, error) {
	return mutate(reg, cause, cmd, func(f *device.Fridge) (string, error) {
		switch cmd.Action {
		case protocol.ActionToggle:
			return togglePower(f, cmd.Args), nil
		case protocol.ActionSetTemperature:
			v, err := intArg(cmd, "temperature")
			if err != nil {
				return "", err
			}
			got, err := f.SetMainTemperature(v)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Fridge temperature set to %d°C", got), nil
		case protocol.ActionSetFreezeTemperature:
			v, err := intArg(cmd, "temperature")
			if err != nil {
				return "", err
			}
			got, err := f.SetFreezeTemperature(v)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Freezer temperature set to %d°C", got), nil
		case protocol.ActionSetDoorStatus:
			mainOpen, freezeOpen := doorTargets(f, cmd.Args)
			f.SetDoors(mainOpen, freezeOpen)
			return fmt.Sprintf("Fridge doors: main %s, freezer %s", openShut(mainOpen), openShut(freezeOpen)), nil
		}
		return "", unknownAction(cmd)
	})
}

// doorTargets resolves the optional door parameters. With neither given
// both doors flip; otherwise an omitted door keeps its state.
func doorTargets(f *device.Fridge, args protocol.Args) (mainOpen, freezeOpen bool) {
	if !args.Has("fridgeDoor") && !args.Has("freezeDoor") {
		return !f.MainDoorOpen(), !f.FreezeDoorOpen()
	}
	return args.BoolOr("fridgeDoor", f.MainDoorOpen()), args.BoolOr("freezeDoor", f.FreezeDoorOpen())
}

func handleInduction(reg *device.Registry, cause device.Cause, cmd protocol.Command) (device.Entry, string, error) {
	return mutate(reg, cause, cmd, func(i *device.Induction) (string, error) {
		if cmd.Action != protocol.ActionSetHeat {
			return "", unknownAction(cmd)
		}
		v, err := intArg(cmd, "level")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Induction heat level set to %d", i.SetHeat(v)), nil
	})
}

func handleWashingMachine(reg *device.Registry, cause device.Cause, cmd protocol.Command) (device.Entry, string, error) {
	return mutate(reg, cause, cmd, func(w *device.WashingMachine) (string, error) {
		switch cmd.Action {
		case protocol.ActionToggle:
			return togglePower(w, cmd.Args), nil
		case protocol.ActionSetCycle:
			v, err := stringArg(cmd, "cycle")
			if err != nil {
				return "", err
			}
			c, err := device.ParseCycle(v)
			if err != nil {
				return "", err
			}
			if err := w.SelectCycle(c); err != nil {
				return "", err
			}
			return fmt.Sprintf("Washing machine cycle set to %s (%d°C, %d min)", c, w.Temperature(), w.RemainingMinutes()), nil
		case protocol.ActionSetTemperature:
			v, err := intArg(cmd, "temperature")
			if err != nil {
				return "", err
			}
			got, err := w.SetTemperature(v)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Washing machine temperature set to %d°C", got), nil
		case protocol.ActionStart:
			if err := w.Start(); err != nil {
				return "", err
			}
			return fmt.Sprintf("Washing machine started %s cycle, %d min remaining", w.Cycle(), w.RemainingMinutes()), nil
		case protocol.ActionStop:
			if err := w.Stop(); err != nil {
				return "", err
			}
			return fmt.Sprintf("Washing machine paused with %d min remaining", w.RemainingMinutes()), nil
		}
		return "", unknownAction(cmd)
	})
}

func handleFan(reg *device.Registry, cause device.Cause, cmd protocol.Command) (device.Entry, string, error) {
	return mutate(reg, cause, cmd, func(f *device.Fan) (string, error) {
		switch cmd.Action {
		case protocol.ActionToggle:
			return togglePower(f, cmd.Args), nil
		case protocol.ActionSetRPM:
			v, err := intArg(cmd, "rpm")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Fan RPM set to %d", f.SetRPM(v)), nil
		}
		return "", unknownAction(cmd)
	})
}

func unknownAction(cmd protocol.Command) error {
	return fmt.Errorf("%w: %q for %s", protocol.ErrUnknownAction, cmd.Action, cmd.Device)
}

func intArg(cmd protocol.Command, name string) (int, error) {
	v, ok := cmd.Args.Int(name)
	if !ok {
		return 0, missing(cmd, name)
	}
	return v, nil
}

func floatArg(cmd protocol.Command, name string) (float64, error) {
	v, ok := cmd.Args.Float(name)
	if !ok {
		return 0, missing(cmd, name)
	}
	return v, nil
}

func stringArg(cmd protocol.Command, name string) (string, error) {
	v, ok := cmd.Args.String(name)
	if !ok {
		return "", missing(cmd, name)
	}
	return v, nil
}

func missing(cmd protocol.Command, name string) error {
	return fmt.Errorf("%w: %s requires %q", protocol.ErrMissingParameter, cmd.Action, name)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func openShut(b bool) string {
	if b {
		return "open"
	}
	return "shut"
}
