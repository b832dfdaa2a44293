package backend

import (
	"github.com/fistaco/rustychippydragoman/chippy/input/action"
	"github.com/fistaco/rustychippydragoman/chippy/input/event"
	"github.com/fistaco/rustychippydragoman/chippy/video"
)

// Backend represents the host platform of the interpreter: it displays
// frames and turns platform input into actions.
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, image files, etc.)
// - Translating platform-specific input events to InputEvents
// - Handling backend-specific features (snapshots, log panels)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config BackendConfig) error

	// Update handles rendering the frame and polling platform events.
	// Backends should:
	// 1. Poll for platform-specific events (keyboard, signals, etc.)
	// 2. Translate them to InputEvents, in the order they happened
	// 3. Render the provided frame
	// The frame is only valid for the duration of the call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// InputEvent is an action performed on the host, already mapped from
// platform keys.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title string
	Scale int // Pixels per CHIP-8 pixel, for backends that rasterise
}
