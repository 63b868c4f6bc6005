package board

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"mastermind/config"
	"mastermind/core"
	"mastermind/game"
)

func noSleep(time.Duration) {}

func openSim(t *testing.T, edit func(*config.Config)) (*Board, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Backend = "sim"
	if edit != nil {
		edit(cfg)
	}
	b, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	b.SetSleeper(noSleep)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return b, cfg
}

// fsel returns the 3-bit function of pin from the simulated registers
func fsel(b *Board, pin int) uint32 {
	offset, shift := core.FunctionSelect(core.GPIOPin(pin))
	return b.Sim.Word(offset) >> shift & 7
}

func level(b *Board, pin int) bool {
	bank, mask := core.Bank(core.GPIOPin(pin))
	return b.Sim.Word(core.RegLEV0+bank)&mask != 0
}

func TestOpenSim(t *testing.T) {
	b, cfg := openSim(t, nil)

	if b.Display.Stage() != core.StageReady {
		t.Errorf("Expected display ready, got %s", b.Display.Stage())
	}
	for _, pin := range []int{cfg.Pins.RS, cfg.Pins.Strobe, cfg.Pins.RedLED, cfg.Pins.YellowLED} {
		if fsel(b, pin) != 1 {
			t.Errorf("Expected pin %d output, got function %d", pin, fsel(b, pin))
		}
	}
	if fsel(b, cfg.Pins.Button) != 0 {
		t.Errorf("Expected button pin input, got function %d", fsel(b, cfg.Pins.Button))
	}
	if !level(b, cfg.Pins.Button) {
		t.Error("Button line should idle high")
	}
	if b.Button.Tick != 50*time.Millisecond || b.Button.IdleTicks != 50 {
		t.Errorf("Unexpected button timing %v/%d", b.Button.Tick, b.Button.IdleTicks)
	}
}

func TestLEDsOnRegisters(t *testing.T) {
	b, cfg := openSim(t, nil)

	if err := b.Red.Set(true); err != nil {
		t.Fatal(err)
	}
	if !level(b, cfg.Pins.RedLED) {
		t.Error("Red LED should read back high")
	}
	if err := b.Red.Blink(3, time.Second); err != nil {
		t.Fatal(err)
	}
	if level(b, cfg.Pins.RedLED) {
		t.Error("Red LED should end off")
	}
}

func TestButtonOnRegisters(t *testing.T) {
	b, cfg := openSim(t, nil)

	b.Sim.Script(uint32(cfg.Pins.Button), false, true, false, true, false)
	res := b.Button.Sample(0)
	if res.Count != 3 {
		t.Errorf("Expected 3 presses, got %d", res.Count)
	}
	if res.Reason != core.ReasonTimeout {
		t.Errorf("Expected timeout, got %s", res.Reason)
	}
}

func TestActiveHighButton(t *testing.T) {
	b, cfg := openSim(t, func(c *config.Config) {
		c.Button.ActiveHigh = true
		c.Button.Pull = "down"
	})

	if level(b, cfg.Pins.Button) {
		t.Error("Active-high button line should idle low")
	}
	b.Sim.Script(uint32(cfg.Pins.Button), true, false, true, false)
	if res := b.Button.Sample(0); res.Count != 2 {
		t.Errorf("Expected 2 presses, got %d", res.Count)
	}
}

func TestDisplayOnRegisters(t *testing.T) {
	b, _ := openSim(t, nil)

	if err := b.Display.PutString("HI"); err != nil {
		t.Fatal(err)
	}
	if col, row := b.Display.Cursor(); col != 2 || row != 0 {
		t.Errorf("Expected cursor (2,0), got (%d,%d)", col, row)
	}
}

func TestGameOnSim(t *testing.T) {
	b, cfg := openSim(t, func(c *config.Config) {
		c.Game.Mode = game.ModeSingle
		c.Game.Length = 2
		c.Game.Attempts = 1
	})

	s, err := game.NewSession(Options(cfg), b.Hardware(nil))
	if err != nil {
		t.Fatal(err)
	}
	s.Sleep = noSleep
	var out bytes.Buffer
	s.Out = &out
	if err := s.SetSecret([]int{1, 2}); err != nil {
		t.Fatal(err)
	}

	// One press, a full idle window, then two presses
	levels := []bool{false, true}
	for i := 0; i < cfg.Button.IdleTicks; i++ {
		levels = append(levels, true)
	}
	levels = append(levels, false, true, false, true)
	b.Sim.Script(uint32(cfg.Pins.Button), levels...)

	res, err := s.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Won || res.Attempts != 1 {
		t.Errorf("Expected a first round win, got %+v", res)
	}
	if g := res.Rounds[0].Guess; len(g) != 2 || g[0] != 1 || g[1] != 2 {
		t.Errorf("Expected guess [1 2], got %v", g)
	}
	if n := strings.Count(out.String(), "Button Pressed\n"); n != 3 {
		t.Errorf("Expected 3 press lines, got %d", n)
	}
}

func TestOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := Options(cfg)
	if opts.RedBlink != time.Second || opts.YellowBlink != 500*time.Millisecond {
		t.Errorf("Unexpected blink periods %v/%v", opts.RedBlink, opts.YellowBlink)
	}
	if opts.StartDelay != 3*time.Second {
		t.Errorf("Expected 3s start delay, got %v", opts.StartDelay)
	}
	if opts.Length != cfg.Game.Length || opts.Attempts != cfg.Game.Attempts {
		t.Errorf("Options do not match config: %+v", opts)
	}
}

func TestPull(t *testing.T) {
	if _, err := Pull("sideways"); err == nil {
		t.Error("Expected error for unknown pull")
	}
	for _, name := range []string{"up", "down", "none"} {
		if _, err := Pull(name); err != nil {
			t.Errorf("Pull(%q) failed: %v", name, err)
		}
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend = "abacus"
	if _, err := Open(cfg); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestCloseWhileBlinking(t *testing.T) {
	b, cfg := openSim(t, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			b.Red.Set(true)
			b.Yellow.Blink(1, time.Second)
		}
	}()
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	<-done

	if level(b, cfg.Pins.RedLED) {
		t.Error("Red LED should be off after Close")
	}
	if level(b, cfg.Pins.YellowLED) {
		t.Error("Yellow LED should be off after Close")
	}

	// Accesses after Close are dropped
	if err := b.Red.Set(true); err != nil {
		t.Errorf("Expected nil error after Close, got %v", err)
	}
	if level(b, cfg.Pins.RedLED) {
		t.Error("Red LED should stay off after Close")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}
