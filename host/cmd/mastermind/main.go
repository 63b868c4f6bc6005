package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"mastermind/config"
	"mastermind/core"
	"mastermind/game"
	"mastermind/host/board"
	"mastermind/host/link"
	"mastermind/host/serial"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	backend    = flag.String("backend", "", "Pin backend: mem, periph or sim")
	mode       = flag.Int("mode", 0, "1 single player, 2 two player (asked when 0)")
	length     = flag.Int("length", 0, "Secret length")
	colors     = flag.Int("colors", 0, "Number of colours")
	attempts   = flag.Int("attempts", 0, "Rounds before the game is lost")
	ask        = flag.Bool("ask", false, "Ask for length and colours on the terminal")
	debug      = flag.Bool("debug", false, "Show the secret (same as a trailing 'd' argument)")
	linkDev    = flag.String("link", "", "Serial device for the event link")
	verbose    = flag.Bool("v", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("mastermind failed")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if *verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	core.SetLogger(log)

	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Game.Debug {
		fmt.Print("Welcome to debug mode (YOU CHEATER)\n\n")
	} else {
		fmt.Print("Welcome to Mastermind :)\n\n")
	}
	if err := newPrompter(os.Stdin, os.Stdout).fillGame(cfg); err != nil {
		return fmt.Errorf("game settings: %w", err)
	}

	b, err := board.Open(cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	closeOnSignal(b, log)

	if err := b.Init(); err != nil {
		core.DumpTraceRing()
		return err
	}

	var pub game.Publisher
	if cfg.Link.Device != "" {
		l, port, err := openLink(cfg, log)
		if err != nil {
			return err
		}
		defer port.Close()
		pub = l
	}

	s, err := game.NewSession(board.Options(cfg), b.Hardware(pub))
	if err != nil {
		return err
	}
	s.Out = os.Stdout
	s.Log = log

	if err := s.Prepare(); err != nil {
		core.DumpTraceRing()
		return err
	}
	res, err := s.Run()
	if err != nil {
		core.DumpTraceRing()
		return err
	}

	log.WithFields(logrus.Fields{
		"won":      res.Won,
		"attempts": res.Attempts,
	}).Info("game finished")
	return nil
}

// applyFlags copies explicitly set flags over the configuration
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "mode":
			cfg.Game.Mode = *mode
		case "length":
			cfg.Game.Length = *length
		case "colors":
			cfg.Game.Colors = *colors
		case "attempts":
			cfg.Game.Attempts = *attempts
		case "debug":
			cfg.Game.Debug = *debug
		case "link":
			cfg.Link.Device = *linkDev
		}
	})
	if flag.Arg(0) == "d" {
		cfg.Game.Debug = true
	}
	if *ask {
		cfg.Game.Length, cfg.Game.Colors = 0, 0
	}
}

// openLink opens the serial port and sends the event dictionary
func openLink(cfg *config.Config, log *logrus.Logger) (*link.Link, serial.Port, error) {
	scfg := serial.DefaultConfig(cfg.Link.Device)
	scfg.Baud = cfg.Link.Baud
	port, err := serial.Open(scfg)
	if err != nil {
		return nil, nil, err
	}

	reg := link.NewRegistry()
	for _, e := range game.Events {
		if _, err := reg.Register(e.Name, e.Format, nil); err != nil {
			port.Close()
			return nil, nil, err
		}
	}

	l := link.New(port, reg)
	l.Log = log
	if err := l.Identify(); err != nil {
		port.Close()
		return nil, nil, err
	}
	log.WithField("device", cfg.Link.Device).Info("event link open")
	return l, port, nil
}

// closeOnSignal turns the LEDs off when the game is interrupted. Board.Close
// serializes with the session's register accesses, which become no-ops
// for the moment the session keeps running before exit.
func closeOnSignal(b *board.Board, log *logrus.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.WithField("signal", s).Info("interrupted")
		b.Close()
		os.Exit(1)
	}()
}
