package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"

	"mastermind/host/link"
	"mastermind/host/serial"
)

var (
	device  = flag.String("device", "/dev/serial0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate")
	stamp   = flag.Bool("timestamps", false, "Prefix events with the receive time")
	verbose = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	fmt.Println("Mastermind Monitor - game event link reader")
	fmt.Println("===========================================")
	fmt.Println()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	port, err := serial.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("cannot open link")
	}
	defer port.Close()
	port.Flush()

	// Events and the prompt share stdout
	var outMu sync.Mutex
	show := func(line string) {
		outMu.Lock()
		defer outMu.Unlock()
		if *stamp {
			line = time.Now().Format("15:04:05.000 ") + line
		}
		fmt.Println(line)
	}

	mon := link.NewMonitor(show)
	mon.Log = log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := mon.Run(ctx, port); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("link read failed")
		}
	}()

	fmt.Printf("Listening on %s. Type 'help' for commands.\n", *device)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit", "q":
			return
		case "help", "?":
			printHelp()
		case "dict":
			if !mon.Ready() {
				fmt.Println("No dictionary yet (waiting for the game to identify)")
				continue
			}
			fmt.Printf("Dictionary version %s:\n%s", mon.Version(), mon.Dictionary())
		case "stats":
			st := mon.Stats()
			fmt.Printf("frames=%d crc_errors=%d resyncs=%d seq_gaps=%d restarts=%d unknown=%d\n",
				st.Frames, st.CRCErrors, st.Resyncs, st.SeqGaps, st.Restarts, mon.Unknown())
		case "mark":
			show("--- " + strings.Join(args[1:], " "))
		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", args[0])
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  dict           - Print the received dictionary")
	fmt.Println("  stats          - Print frame counters")
	fmt.Println("  mark <text>    - Print a marker line between events")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
