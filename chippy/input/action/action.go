package action

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// CHIP-8 hexadecimal keypad, in key value order
	Key0 Action = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF

	// Emulator features
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorReset
	EmulatorSnapshot
	EmulatorQuit
)

// KeyCount is the number of keys on the keypad.
const KeyCount = 16

// Key returns the keypad action for a key value.
func Key(value uint8) Action {
	return Key0 + Action(value&0x0F)
}

// IsKey reports whether the action is a keypad key.
func (a Action) IsKey() bool {
	return a >= Key0 && a <= KeyF
}

// KeyValue returns the keypad value of a key action.
func (a Action) KeyValue() (uint8, bool) {
	if !a.IsKey() {
		return 0, false
	}
	return uint8(a - Key0), true
}

func (a Action) String() string {
	if v, ok := a.KeyValue(); ok {
		return "key " + "0123456789ABCDEF"[v:v+1]
	}

	switch a {
	case EmulatorPauseToggle:
		return "pause"
	case EmulatorStepFrame:
		return "step frame"
	case EmulatorReset:
		return "reset"
	case EmulatorSnapshot:
		return "snapshot"
	case EmulatorQuit:
		return "quit"
	default:
		return "unknown"
	}
}
