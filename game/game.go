// Package game runs a Mastermind session on one button, two LEDs and a
// character display. Symbols are entered as a number of button presses.
package game

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"mastermind/core"
)

// Modes
const (
	ModeSingle = 1 // Random secret
	ModeTwo    = 2 // Secret entered on the button by a second player
)

// Outcome is the state after a round
type Outcome uint8

const (
	Continue Outcome = iota
	Win
	Lose
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Win:
		return "win"
	case Lose:
		return "lose"
	}
	return "unknown"
}

var (
	ErrNoSecret = errors.New("game: secret not set")
	ErrMode     = errors.New("game: unsupported mode")
)

// Display is the part of the LCD driver a session uses
type Display interface {
	Clear() error
	SetPosition(x, y int) error
	PutString(s string) error
	Cols() int
}

// Input yields one symbol per call as a count of presses
type Input interface {
	Sample(maxCount int) core.SampleResult
}

// PressNotifier is an Input that reports each press as it is counted
type PressNotifier interface {
	SetOnPress(fn func(count int))
}

// Indicator is an LED
type Indicator interface {
	Blink(n int, period time.Duration) error
}

// Options are the session parameters
type Options struct {
	Mode        int
	Length      int
	Colors      int
	Attempts    int
	Debug       bool
	RedBlink    time.Duration
	YellowBlink time.Duration
	StartDelay  time.Duration
}

// Hardware bundles what a session drives
type Hardware struct {
	Display Display
	Button  Input
	Red     Indicator
	Yellow  Indicator
	Events  Publisher // Optional
}

// RoundResult is the record of one guess
type RoundResult struct {
	Round   int // 1-based
	Guess   []int
	Exact   int
	Colour  int
	Outcome Outcome
}

// Result is the record of a whole game
type Result struct {
	Won      bool
	Attempts int
	Rounds   []RoundResult
}

// Session is one game
type Session struct {
	opts Options
	hw   Hardware

	secret  []int
	markers bool

	// Out receives the player-facing console text
	Out   io.Writer
	Log   logrus.FieldLogger
	Sleep core.Sleeper
	Rand  *rand.Rand
}

// NewSession checks the options and returns a session without a secret
func NewSession(opts Options, hw Hardware) (*Session, error) {
	if opts.Mode != ModeSingle && opts.Mode != ModeTwo {
		return nil, fmt.Errorf("%w: %d", ErrMode, opts.Mode)
	}
	if opts.Length < 1 || opts.Colors < 1 || opts.Attempts < 1 {
		return nil, fmt.Errorf("game: length %d, colors %d and attempts %d must be positive",
			opts.Length, opts.Colors, opts.Attempts)
	}
	if hw.Display == nil || hw.Button == nil || hw.Red == nil || hw.Yellow == nil {
		return nil, errors.New("game: display, button and both LEDs are required")
	}
	if hw.Events == nil {
		hw.Events = nopPublisher{}
	}

	s := &Session{
		opts:  opts,
		hw:    hw,
		Out:   io.Discard,
		Log:   logrus.StandardLogger(),
		Sleep: time.Sleep,
		Rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if pn, ok := hw.Button.(PressNotifier); ok {
		pn.SetOnPress(s.pressed)
	}
	return s, nil
}

func (s *Session) pressed(int) {
	fmt.Fprintf(s.Out, "Button Pressed\n")
}

// Secret returns the current secret
func (s *Session) Secret() []int { return s.secret }

// SetSecret installs a secret; values must be in 1..Colors
func (s *Session) SetSecret(secret []int) error {
	if len(secret) != s.opts.Length {
		return fmt.Errorf("game: secret length %d, want %d", len(secret), s.opts.Length)
	}
	for i, v := range secret {
		if v < 1 || v > s.opts.Colors {
			return fmt.Errorf("game: secret symbol %d is %d, want 1..%d", i, v, s.opts.Colors)
		}
	}
	s.secret = append([]int(nil), secret...)
	return nil
}

// Prepare chooses the secret for the configured mode and announces the
// game. In two player mode the secret is read from the button.
func (s *Session) Prepare() error {
	s.publish(EvtGameStart, s.opts.Mode, s.opts.Length, s.opts.Colors, s.opts.Attempts)
	s.loadMarkers()

	switch s.opts.Mode {
	case ModeSingle:
		if err := s.SetSecret(RandomSecret(s.Rand, s.opts.Length, s.opts.Colors)); err != nil {
			return err
		}
	case ModeTwo:
		s.Sleep(s.opts.StartDelay)
		secret, err := s.EnterSecret()
		if err != nil {
			return err
		}
		if err := s.SetSecret(secret); err != nil {
			return err
		}
	}

	if s.opts.Debug {
		fmt.Fprintf(s.Out, "The secret is\n%s\n", FormatSequence(s.secret))
		for i, v := range s.secret {
			s.publish(EvtSecret, i, v)
		}
	}
	return nil
}

// EnterSecret reads Length symbols from the button, echoing each on the
// LEDs, and ends with four red blinks. A symbol with no presses is asked
// for again.
func (s *Session) EnterSecret() ([]int, error) {
	fmt.Fprintf(s.Out, "Start entering the secret\n")
	secret, err := s.readSequence(0)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(s.Out, "End of entering the secret\n")
	return secret, s.hw.Red.Blink(4, s.opts.RedBlink)
}

// readSequence samples Length symbols; round 0 is secret entry
func (s *Session) readSequence(round int) ([]int, error) {
	seq := make([]int, s.opts.Length)
	for i := 0; i < len(seq); {
		fmt.Fprintf(s.Out, "Enter symbol %d\n", i+1)
		res := s.hw.Button.Sample(s.opts.Colors)
		seq[i] = res.Count

		fmt.Fprintf(s.Out, "You pressed the button %d time(s)\n", res.Count)
		s.Log.WithFields(logrus.Fields{
			"round":  round,
			"index":  i,
			"count":  res.Count,
			"reason": res.Reason,
		}).Debug("symbol entered")
		s.publish(EvtSymbol, round, i, res.Count, res.Reason.String())

		if err := s.hw.Red.Blink(2, s.opts.RedBlink); err != nil {
			return nil, err
		}
		if err := s.hw.Yellow.Blink(2*res.Count, s.opts.YellowBlink); err != nil {
			return nil, err
		}
		if round == 0 && res.Count == 0 {
			fmt.Fprintf(s.Out, "A secret symbol needs at least one press\n")
			continue
		}
		i++
	}
	return seq, nil
}

// PlayRound reads one guess, scores it and shows the result
func (s *Session) PlayRound(round int) (RoundResult, error) {
	rr := RoundResult{Round: round}
	if s.secret == nil {
		return rr, ErrNoSecret
	}

	fmt.Fprintf(s.Out, "Starting Round %d\n", round)
	guess, err := s.readSequence(round)
	if err != nil {
		return rr, err
	}
	rr.Guess = guess
	fmt.Fprintf(s.Out, "End of Round %d\n", round)
	if err := s.hw.Red.Blink(4, s.opts.RedBlink); err != nil {
		return rr, err
	}

	rr.Exact, rr.Colour = Score(s.secret, guess)
	fmt.Fprintf(s.Out, "Exact Matches: %d\nColor Matches: %d\n", rr.Exact, rr.Colour)

	if err := s.showScore(rr.Exact, rr.Colour); err != nil {
		return rr, err
	}
	if err := s.echoScore(rr.Exact, rr.Colour); err != nil {
		return rr, err
	}

	switch {
	case rr.Exact == s.opts.Length:
		rr.Outcome = Win
	case round >= s.opts.Attempts:
		rr.Outcome = Lose
	default:
		rr.Outcome = Continue
	}

	s.Log.WithFields(logrus.Fields{
		"round":   round,
		"exact":   rr.Exact,
		"color":   rr.Colour,
		"outcome": rr.Outcome,
	}).Info("round finished")
	s.publish(EvtRoundEnd, round, rr.Exact, rr.Colour, rr.Outcome.String())
	return rr, nil
}

// Run plays rounds until a win or the attempts run out. Prepare or
// SetSecret must have been called.
func (s *Session) Run() (*Result, error) {
	if s.secret == nil {
		return nil, ErrNoSecret
	}
	s.Sleep(s.opts.StartDelay)

	res := &Result{}
	for round := 1; ; round++ {
		rr, err := s.PlayRound(round)
		if err != nil {
			return res, err
		}
		res.Rounds = append(res.Rounds, rr)
		res.Attempts = round

		if rr.Outcome == Win {
			res.Won = true
			if err := s.celebrate(round); err != nil {
				return res, err
			}
			break
		}

		if err := s.hw.Red.Blink(6, s.opts.RedBlink); err != nil {
			return res, err
		}
		if rr.Outcome == Lose {
			if err := s.gameOver(); err != nil {
				return res, err
			}
			break
		}
	}

	s.publish(EvtGameEnd, res.Won, res.Attempts)
	return res, nil
}

func (s *Session) showScore(exact, colour int) error {
	top := fmt.Sprintf("Exact: %d", exact)
	bottom := fmt.Sprintf("Color: %d", colour)

	if err := s.writeLines(top, bottom); err != nil {
		return err
	}
	if !s.markers {
		return nil
	}
	col := s.hw.Display.Cols() - s.opts.Length
	if col <= len(top) {
		return nil
	}
	if err := s.hw.Display.SetPosition(col, 0); err != nil {
		return err
	}
	return s.hw.Display.PutString(markerRow(exact, colour, s.opts.Length))
}

// echoScore repeats the counts on the LEDs: yellow exact, red separator,
// yellow colour
func (s *Session) echoScore(exact, colour int) error {
	if err := s.hw.Yellow.Blink(2*exact, s.opts.YellowBlink); err != nil {
		return err
	}
	if err := s.hw.Red.Blink(2, s.opts.RedBlink); err != nil {
		return err
	}
	return s.hw.Yellow.Blink(2*colour, s.opts.YellowBlink)
}

func (s *Session) celebrate(attempts int) error {
	fmt.Fprintf(s.Out, "YOU WIN\n")
	if err := s.hw.Red.Blink(1, s.opts.RedBlink); err != nil {
		return err
	}
	if err := s.hw.Yellow.Blink(6, s.opts.YellowBlink); err != nil {
		return err
	}
	if err := s.hw.Red.Blink(2, s.opts.RedBlink); err != nil {
		return err
	}
	return s.writeLines("SUCCESS", fmt.Sprintf("Attempts: %d", attempts))
}

func (s *Session) gameOver() error {
	fmt.Fprintf(s.Out, "You're out of attempts\nGame Over\n")
	return s.writeLines("GAME OVER", "")
}

// writeLines clears the display and writes up to two lines
func (s *Session) writeLines(lines ...string) error {
	if err := s.hw.Display.Clear(); err != nil {
		return err
	}
	for row, text := range lines {
		if text == "" {
			continue
		}
		if err := s.hw.Display.SetPosition(0, row); err != nil {
			return err
		}
		if err := s.hw.Display.PutString(text); err != nil {
			return err
		}
		s.publish(EvtLCD, row, text)
	}
	return nil
}

// loadMarkers uploads the score glyphs when the display supports them
func (s *Session) loadMarkers() {
	gl, ok := s.hw.Display.(core.CharDefiner)
	if !ok {
		return
	}
	markers := []*core.Glyph{
		markerGlyph(gl, MarkerExact, true),
		markerGlyph(gl, MarkerColour, false),
	}
	for _, g := range markers {
		if err := g.Display(); err != nil {
			s.Log.WithError(err).Warn("score markers unavailable")
			return
		}
	}
	s.markers = true
}

func (s *Session) publish(name string, args ...interface{}) {
	if err := s.hw.Events.Publish(name, args...); err != nil {
		s.Log.WithError(err).WithField("event", name).Warn("event not sent")
	}
}
