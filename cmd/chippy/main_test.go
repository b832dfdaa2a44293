package main

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/fistaco/rustychippydragoman/chippy"
	"github.com/fistaco/rustychippydragoman/chippy/audio"
	"github.com/fistaco/rustychippydragoman/chippy/backend/headless"
	"github.com/fistaco/rustychippydragoman/chippy/backend/terminal"
	"github.com/fistaco/rustychippydragoman/chippy/cpu"
	"github.com/fistaco/rustychippydragoman/chippy/timing"
)

// contextFor parses args against the app's flags the same way cli.App.Run does.
func contextFor(t *testing.T, args ...string) *cli.Context {
	t.Helper()

	app := newApp()
	set := flag.NewFlagSet(app.Name, flag.ContinueOnError)
	for _, f := range app.Flags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))

	return cli.NewContext(app, set, nil)
}

func TestConfigFromFlags(t *testing.T) {
	testCases := []struct {
		desc     string
		args     []string
		expected func() chippy.Config
	}{
		{
			desc:     "defaults",
			args:     nil,
			expected: chippy.DefaultConfig,
		},
		{
			desc: "rate and seed",
			args: []string{"--ips", "1000", "--seed", "42"},
			expected: func() chippy.Config {
				c := chippy.DefaultConfig()
				c.InstructionsPerSecond = 1000
				c.Seed = 42
				return c
			},
		},
		{
			desc: "individual quirks",
			args: []string{"--shift-vy", "--clip-sprites"},
			expected: func() chippy.Config {
				c := chippy.DefaultConfig()
				c.Quirks.ShiftUsesVY = true
				c.Quirks.ClipSprites = true
				return c
			},
		},
		{
			desc: "vip preset",
			args: []string{"--vip"},
			expected: func() chippy.Config {
				c := chippy.DefaultConfig()
				c.Quirks = cpu.VIPQuirks()
				return c
			},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			config := configFromFlags(contextFor(t, tC.args...))
			assert.Equal(t, tC.expected(), config)
		})
	}
}

func TestCreateBackend(t *testing.T) {
	t.Run("terminal by default", func(t *testing.T) {
		b, limiter, err := createBackend(contextFor(t), "game.ch8")
		require.NoError(t, err)
		assert.IsType(t, &terminal.Backend{}, b)
		assert.NotNil(t, limiter)
	})

	t.Run("headless requires frames", func(t *testing.T) {
		_, _, err := createBackend(contextFor(t, "--headless"), "game.ch8")
		assert.Error(t, err)
	})

	t.Run("frames are checked before the limiter is built", func(t *testing.T) {
		b, limiter, err := createBackend(contextFor(t, "--headless", "--frames", "0", "--limiter", "turbo"), "game.ch8")
		assert.ErrorContains(t, err, "--frames")
		assert.NotContains(t, err.Error(), "turbo")
		assert.Nil(t, b)
		assert.Nil(t, limiter)
	})

	t.Run("unknown limiter", func(t *testing.T) {
		_, _, err := createBackend(contextFor(t, "--limiter", "turbo"), "game.ch8")
		assert.ErrorContains(t, err, "turbo")
	})

	t.Run("headless with frames", func(t *testing.T) {
		dir := t.TempDir()
		b, limiter, err := createBackend(contextFor(t, "--headless", "--frames", "10", "--snapshot-dir", dir), "game.ch8")
		require.NoError(t, err)
		assert.IsType(t, &headless.Backend{}, b)
		assert.NotNil(t, limiter)
	})
}

func TestCreateLimiter(t *testing.T) {
	testCases := []struct {
		desc     string
		name     string
		headless bool
		expected timing.Limiter
	}{
		{desc: "interactive default", name: "", headless: false, expected: &timing.AdaptiveLimiter{}},
		{desc: "headless default", name: "", headless: true, expected: timing.NewNoOpLimiter()},
		{desc: "adaptive", name: "adaptive", headless: true, expected: &timing.AdaptiveLimiter{}},
		{desc: "ticker", name: "ticker", headless: false, expected: &timing.TickerLimiter{}},
		{desc: "none", name: "none", headless: false, expected: timing.NewNoOpLimiter()},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			limiter, err := createLimiter(tC.name, tC.headless)
			require.NoError(t, err)
			assert.IsType(t, tC.expected, limiter)
			if ticker, ok := limiter.(*timing.TickerLimiter); ok {
				ticker.Stop()
			}
		})
	}

	_, err := createLimiter("turbo", false)
	assert.ErrorContains(t, err, "turbo")
}

func TestCreateSink(t *testing.T) {
	sink, err := createSink("")
	require.NoError(t, err)
	assert.Equal(t, audio.Silent{}, sink)

	path := filepath.Join(t.TempDir(), "beep.wav")
	sink, err = createSink(path)
	require.NoError(t, err)
	assert.IsType(t, &audio.WavRecorder{}, sink)
	assert.NoError(t, sink.Close())
	assert.FileExists(t, path)

	_, err = createSink(filepath.Join(t.TempDir(), "missing", "beep.wav"))
	assert.Error(t, err)
}

func TestRomTitle(t *testing.T) {
	assert.Equal(t, "pong", romTitle("/roms/pong.ch8"))
	assert.Equal(t, "IBM Logo", romTitle("IBM Logo.ch8"))
	assert.Equal(t, "noext", romTitle("noext"))
}
