package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"

	"github.com/fistaco/rustychippydragoman/chippy/backend"
	"github.com/fistaco/rustychippydragoman/chippy/backend/terminal/render"
	"github.com/fistaco/rustychippydragoman/chippy/input"
	"github.com/fistaco/rustychippydragoman/chippy/input/action"
	"github.com/fistaco/rustychippydragoman/chippy/input/event"
	"github.com/fistaco/rustychippydragoman/chippy/video"
)

const (
	// keyTimeout is how long a keypad key stays down after its last key
	// event. Terminals report presses and auto-repeats but no releases, so
	// the release is inferred; this is slightly longer than a typical key
	// repeat interval.
	keyTimeout = 150 * time.Millisecond

	logCapacity   = 100
	minLogWidth   = 20
	helpText      = " 1234/QWER/ASDF/ZXCV=keypad SPACE=pause ENTER=step F5=reset F9=snapshot +/-=logs ^L=clear logs ESC=quit "
	titleTemplate = " %s "
)

// Backend implements the Backend interface using tcell for terminal
// rendering. The frame is drawn with half block glyphs, two CHIP-8 pixels
// per cell, with captured log output in a side panel.
type Backend struct {
	screen     tcell.Screen
	logBuffer  *render.LogBuffer
	logLevel   slog.Level
	prevLogger *slog.Logger
	config     backend.BackendConfig

	mu         sync.Mutex
	eventQueue []backend.InputEvent // events not tied to keypad state
	running    bool

	keyStates  map[action.Action]time.Time // Last time each keypad key was seen
	activeKeys map[action.Action]bool      // Keys active in previous frame
	now        func() time.Time

	signals chan os.Signal
	done    chan struct{}
}

// New creates a terminal backend on the process's terminal.
func New() *Backend {
	return &Backend{
		logLevel: slog.LevelInfo,
		now:      time.Now,
	}
}

// NewWithScreen creates a terminal backend drawing to screen, which must
// not be initialised yet. Tests use a tcell simulation screen.
func NewWithScreen(screen tcell.Screen) *Backend {
	t := New()
	t.screen = screen
	return t
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.eventQueue = nil
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return errors.Wrap(err, "failed to initialize terminal")
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize terminal")
	}
	t.running = true

	// capture logs, writing to stderr would corrupt the screen
	t.logBuffer = render.NewLogBuffer(logCapacity)
	t.prevLogger = slog.Default()
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))

	slog.Info("Terminal backend initialized", "title", config.Title)

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// focus loss lets go of every held keypad key
	t.screen.EnableFocus()

	// Set up signal handling for graceful shutdown. The goroutine only sees
	// its own copies of the channels; Cleanup owns the fields.
	signals := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	t.signals, t.done = signals, done
	go t.handleSignals(signals, done)

	return nil
}

// Update renders a frame and processes events
func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	var events []backend.InputEvent
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now, frame)
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventFocus:
			if !ev.Focused {
				clear(t.keyStates)
			}
		}
	}

	// keypad state: Press on the first frame a key is seen, Hold while it
	// keeps repeating, Release once it times out
	currentlyActive := make(map[action.Action]bool)
	for act := action.Key0; act <= action.KeyF; act++ {
		lastPressed, ok := t.keyStates[act]
		if !ok {
			continue
		}
		if now.Sub(lastPressed) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}

		currentlyActive[act] = true
		if !t.activeKeys[act] {
			slog.Debug("Key press", "action", act)
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		} else {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		}
	}
	for act := action.Key0; act <= action.KeyF; act++ {
		if t.activeKeys[act] && !currentlyActive[act] {
			slog.Debug("Key release", "action", act)
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
	t.activeKeys = currentlyActive

	t.mu.Lock()
	events = append(events, t.eventQueue...)
	t.eventQueue = nil
	running := t.running
	t.mu.Unlock()

	if !running {
		return events, nil
	}

	t.render(frame)
	t.screen.Show()

	return events, nil
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.done != nil {
		signal.Stop(t.signals)
		close(t.done)
		t.done = nil
	}
	if t.prevLogger != nil {
		slog.SetDefault(t.prevLogger)
		t.prevLogger = nil
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// LogLevel returns the lowest level shown in the log panel.
func (t *Backend) LogLevel() slog.Level {
	return t.logLevel
}

func (t *Backend) handleSignals(signals <-chan os.Signal, done <-chan struct{}) {
	select {
	case <-signals:
		t.queue(action.EmulatorQuit)
	case <-done:
	}
}

func (t *Backend) queue(act action.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if act == action.EmulatorQuit {
		t.running = false
	}
	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time, frame *video.FrameBuffer) {
	var (
		act    action.Action
		mapped bool
	)
	if ev.Key() == tcell.KeyCtrlL {
		t.logBuffer.Clear()
		t.screen.Sync()
		return
	}
	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case '+', '=':
			t.changeLogLevel(1)
			return
		case '-', '_':
			t.changeLogLevel(-1)
			return
		}
		act, mapped = runeMapping[unicode.ToLower(ev.Rune())]
	} else {
		act, mapped = keyMapping[ev.Key()]
	}
	if !mapped {
		return
	}

	switch {
	case act.IsKey():
		t.keyStates[act] = now
	case act == action.EmulatorSnapshot:
		backend.TakeSnapshot(frame)
	default:
		t.queue(act)
	}
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyEscape: "Escape",
	tcell.KeyF5:     "F5",
	tcell.KeyF9:     "F9",
}

// buildKeyMapping creates the key mapping from default mappings
func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)

	for key, keyName := range tcellKeyNameMap {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}

	mapping[tcell.KeyCtrlC] = action.EmulatorQuit

	return mapping
}

// buildRuneMapping creates the rune mapping from default mappings: every
// single character key name, plus space.
func buildRuneMapping() map[rune]action.Action {
	mapping := make(map[rune]action.Action)

	for keyName, act := range input.DefaultKeyMap {
		if r := []rune(keyName); len(r) == 1 {
			mapping[r[0]] = act
		}
	}
	if act, ok := input.GetDefaultMapping("Space"); ok {
		mapping[' '] = act
	}

	return mapping
}

// keyMapping maps tcell keys to actions
var keyMapping = buildKeyMapping()

// runeMapping maps runes to actions
var runeMapping = buildRuneMapping()

func (t *Backend) changeLogLevel(direction int) {
	oldLevel := t.logLevel
	switch direction {
	case -1:
		switch t.logLevel {
		case slog.LevelDebug:
			t.logLevel = slog.LevelInfo
		case slog.LevelInfo:
			t.logLevel = slog.LevelWarn
		case slog.LevelWarn:
			t.logLevel = slog.LevelError
		}
	case 1:
		switch t.logLevel {
		case slog.LevelError:
			t.logLevel = slog.LevelWarn
		case slog.LevelWarn:
			t.logLevel = slog.LevelInfo
		case slog.LevelInfo:
			t.logLevel = slog.LevelDebug
		}
	}
	if oldLevel != t.logLevel {
		slog.Info("Log filter changed", "from", oldLevel, "to", t.logLevel)
	}
}

func (t *Backend) render(frame *video.FrameBuffer) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	// frame plus a border on each side, and the help line at the bottom
	gameWidth := frame.Width() + 2
	gameHeight := (frame.Height()+1)/2 + 2
	if termWidth < gameWidth || termHeight < gameHeight+1 {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", gameWidth, gameHeight+1)
		t.drawText(0, termHeight/2, termWidth, msg, style)
		return
	}

	t.drawBorder(gameWidth, gameHeight)
	t.drawFrame(frame)

	if logWidth := termWidth - gameWidth - 1; logWidth >= minLogWidth {
		t.drawLogs(gameWidth+1, 0, logWidth, termHeight-1)
	}

	t.drawText(0, termHeight-1, termWidth, helpText, tcell.StyleDefault.Foreground(tcell.ColorGray))
}

func (t *Backend) drawBorder(w, h int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	for x := 1; x < w-1; x++ {
		t.screen.SetContent(x, 0, '─', nil, style)
		t.screen.SetContent(x, h-1, '─', nil, style)
	}
	for y := 1; y < h-1; y++ {
		t.screen.SetContent(0, y, '│', nil, style)
		t.screen.SetContent(w-1, y, '│', nil, style)
	}
	t.screen.SetContent(0, 0, '┌', nil, style)
	t.screen.SetContent(w-1, 0, '┐', nil, style)
	t.screen.SetContent(0, h-1, '└', nil, style)
	t.screen.SetContent(w-1, h-1, '┘', nil, style)

	title := t.config.Title
	if title == "" {
		title = "CHIP-8"
	}
	t.drawText(2, 0, w-4, fmt.Sprintf(titleTemplate, title), tcell.StyleDefault.Foreground(tcell.ColorYellow))
}

func (t *Backend) drawFrame(frame *video.FrameBuffer) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)

	for y := 0; y < frame.Height(); y += 2 {
		for x := 0; x < frame.Width(); x++ {
			top := frame.GetPixel(x, y) == video.PixelOn
			bottom := frame.GetPixel(x, y+1) == video.PixelOn
			t.screen.SetContent(x+1, y/2+1, render.HalfBlock(top, bottom), nil, style)
		}
	}
}

func (t *Backend) drawLogs(startX, startY, width, height int) {
	if height <= 0 || t.logBuffer.Len() == 0 {
		return
	}

	logs := make([]render.LogEntry, 0, height)
	for _, entry := range t.logBuffer.GetRecent(0) {
		if entry.Level >= t.logLevel {
			logs = append(logs, entry)
			if len(logs) >= height {
				break
			}
		}
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range logs {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}
		t.drawText(startX, startY+i, width, render.FormatLogEntry(entry), style)
	}
}

func (t *Backend) drawText(x, y, width int, text string, style tcell.Style) {
	for i, ch := range []rune(render.Truncate(text, width)) {
		t.screen.SetContent(x+i, y, ch, nil, style)
	}
}
