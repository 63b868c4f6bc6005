package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mastermind/config"
)

var errNoInput = errors.New("no input")

// prompter asks for settings on a terminal
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(r), out: w}
}

// askInt repeats the question until a number in [min, max] is entered
func (p *prompter) askInt(question string, min, max int) (int, error) {
	for {
		fmt.Fprint(p.out, question)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, err
			}
			return 0, errNoInput
		}
		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err != nil || n < min || n > max {
			fmt.Fprintf(p.out, "Please enter a number from %d to %d\n", min, max)
			continue
		}
		return n, nil
	}
}

// fillGame asks for every game setting left at zero
func (p *prompter) fillGame(cfg *config.Config) error {
	var err error
	if cfg.Game.Mode == 0 {
		cfg.Game.Mode, err = p.askInt("1-Single Player(Randomly Generated)\n2-Two Player\nplease select an option: ", 1, 2)
		if err != nil {
			return err
		}
	}
	if cfg.Game.Length == 0 {
		cfg.Game.Length, err = p.askInt("Enter the length of the secret: ", 1, cfg.Display.Cols)
		if err != nil {
			return err
		}
	}
	if cfg.Game.Colors == 0 {
		cfg.Game.Colors, err = p.askInt("Enter number of colours available: ", 1, config.MaxColors)
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(p.out)
	return nil
}
