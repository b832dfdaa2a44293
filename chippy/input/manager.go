package input

import (
	"time"

	"github.com/fistaco/rustychippydragoman/chippy/input/action"
	"github.com/fistaco/rustychippydragoman/chippy/input/event"
)

const (
	// debounceDuration is the minimum time between two Press (or Release)
	// events of the same emulator action. Keypad keys are never debounced:
	// games poll them every frame.
	debounceDuration = 300 * time.Millisecond
)

// Manager folds input events into the keypad state read by the CPU and
// dispatches emulator actions to registered callbacks.
type Manager struct {
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]map[event.Type]time.Time
	keys          [action.KeyCount]bool
	now           func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]map[event.Type]time.Time),
		now:           time.Now,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	// keypad state, held until the matching release
	if key, ok := act.KeyValue(); ok {
		switch evt {
		case event.Press, event.Hold:
			m.keys[key] = true
		case event.Release:
			m.keys[key] = false
		}
	} else if m.debounced(act, evt) {
		return
	}

	for _, callback := range m.handlers[act][evt] {
		callback()
	}
}

func (m *Manager) debounced(act action.Action, evt event.Type) bool {
	if evt != event.Press && evt != event.Release {
		return false
	}

	now := m.now()
	if m.lastTriggered[act] == nil {
		m.lastTriggered[act] = make(map[event.Type]time.Time)
	}
	if last, ok := m.lastTriggered[act][evt]; ok && now.Sub(last) < debounceDuration {
		return true
	}
	m.lastTriggered[act][evt] = now
	return false
}

// Keys returns the current keypad state, indexed by key value.
func (m *Manager) Keys() [action.KeyCount]bool {
	return m.keys
}

// ReleaseAll lifts every keypad key, e.g. when the host loses focus.
func (m *Manager) ReleaseAll() {
	m.keys = [action.KeyCount]bool{}
}
