package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fistaco/rustychippydragoman/chippy/input/action"
	"github.com/fistaco/rustychippydragoman/chippy/input/event"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	m := NewManager()
	m.now = clock.now
	return m, clock
}

func TestManager_Keypad(t *testing.T) {
	m, _ := newTestManager()

	m.Trigger(action.KeyA, event.Press)
	m.Trigger(action.Key3, event.Hold)

	keys := m.Keys()
	assert.True(t, keys[0xA])
	assert.True(t, keys[0x3])
	assert.False(t, keys[0x0])

	m.Trigger(action.KeyA, event.Release)
	assert.False(t, m.Keys()[0xA])
	assert.True(t, m.Keys()[0x3])

	m.ReleaseAll()
	assert.Equal(t, [action.KeyCount]bool{}, m.Keys())
}

func TestManager_KeysAreNotDebounced(t *testing.T) {
	m, _ := newTestManager()
	presses := 0
	m.On(action.Key5, event.Press, func() { presses++ })

	for i := 0; i < 3; i++ {
		m.Trigger(action.Key5, event.Press)
		m.Trigger(action.Key5, event.Release)
	}

	assert.Equal(t, 3, presses)
	assert.False(t, m.Keys()[5])
}

func TestManager_Debouncing(t *testing.T) {
	tests := []struct {
		name        string
		eventType   event.Type
		timeBetween time.Duration
		wantCalls   int
	}{
		{name: "rapid press is debounced", eventType: event.Press, timeBetween: 100 * time.Millisecond, wantCalls: 1},
		{name: "slow press is not debounced", eventType: event.Press, timeBetween: 400 * time.Millisecond, wantCalls: 2},
		{name: "rapid release is debounced", eventType: event.Release, timeBetween: 10 * time.Millisecond, wantCalls: 1},
		{name: "hold is never debounced", eventType: event.Hold, timeBetween: 10 * time.Millisecond, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, clock := newTestManager()
			calls := 0
			m.On(action.EmulatorPauseToggle, tt.eventType, func() { calls++ })

			m.Trigger(action.EmulatorPauseToggle, tt.eventType)
			clock.advance(tt.timeBetween)
			m.Trigger(action.EmulatorPauseToggle, tt.eventType)

			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestManager_MultipleCallbacks(t *testing.T) {
	m, _ := newTestManager()
	var order []string
	m.On(action.EmulatorQuit, event.Press, func() { order = append(order, "first") })
	m.On(action.EmulatorQuit, event.Press, func() { order = append(order, "second") })
	m.On(action.EmulatorQuit, event.Release, func() { order = append(order, "release") })

	m.Trigger(action.EmulatorQuit, event.Press)
	m.Trigger(action.EmulatorReset, event.Press)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDefaultKeyMap(t *testing.T) {
	keys := map[uint8]bool{}
	for _, act := range DefaultKeyMap {
		if v, ok := act.KeyValue(); ok {
			keys[v] = true
		}
	}
	assert.Len(t, keys, action.KeyCount, "every keypad key has a default binding")

	act, ok := GetDefaultMapping("v")
	assert.True(t, ok)
	assert.Equal(t, action.KeyF, act)

	_, ok = GetDefaultMapping("F12")
	assert.False(t, ok)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "key B", action.Key(0xB).String())
	assert.Equal(t, "key F", action.Key(0x1F).String())
	assert.Equal(t, "quit", action.EmulatorQuit.String())
	assert.False(t, action.EmulatorQuit.IsKey())
}
