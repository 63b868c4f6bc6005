package mem

import (
	"sync"
)

// Register offsets the simulator gives special meaning to
const (
	simSET0 = 7
	simCLR0 = 10
	simLEV0 = 13
)

// RegWrite is one recorded register store
type RegWrite struct {
	Offset uint32
	Value  uint32
}

// Sim is an in-memory register block with GPIO loopback: stores to the
// set and clear registers update the level registers, which is how a
// driven output reads back on hardware. Input pins can be scripted with
// levels that are consumed one per level-register read.
type Sim struct {
	mu      sync.Mutex
	words   []uint32
	scripts map[uint32][]bool
	writes  []RegWrite
	record  bool
}

// NewSim creates a zeroed block of size bytes
func NewSim(size int) *Sim {
	return &Sim{
		words:   make([]uint32, size/4),
		scripts: make(map[uint32][]bool),
	}
}

// Len returns the number of 32-bit registers
func (s *Sim) Len() int { return len(s.words) }

func (s *Sim) ReadBits(offset uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset == simLEV0 || offset == simLEV0+1 {
		s.advance(offset - simLEV0)
	}
	switch offset {
	case simSET0, simSET0 + 1, simCLR0, simCLR0 + 1:
		return 0 // Write-only
	}
	return s.words[offset]
}

// advance applies the next scripted level of every scripted pin in bank
func (s *Sim) advance(bank uint32) {
	for pin, levels := range s.scripts {
		if pin/32 != bank || len(levels) == 0 {
			continue
		}
		s.setLevel(pin, levels[0])
		s.scripts[pin] = levels[1:]
	}
}

func (s *Sim) setLevel(pin uint32, high bool) {
	mask := uint32(1) << (pin % 32)
	if high {
		s.words[simLEV0+pin/32] |= mask
	} else {
		s.words[simLEV0+pin/32] &^= mask
	}
}

func (s *Sim) WriteBits(offset uint32, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(offset, value)
}

func (s *Sim) store(offset uint32, value uint32) {
	if s.record {
		s.writes = append(s.writes, RegWrite{Offset: offset, Value: value})
	}
	switch offset {
	case simSET0, simSET0 + 1:
		s.words[simLEV0+offset-simSET0] |= value
	case simCLR0, simCLR0 + 1:
		s.words[simLEV0+offset-simCLR0] &^= value
	default:
		s.words[offset] = value
	}
}

func (s *Sim) SetBits(offset uint32, mask uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(offset, s.words[offset]|mask)
}

func (s *Sim) ClearBits(offset uint32, mask uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(offset, s.words[offset]&^mask)
}

// SetInput forces the level of pin, as an external signal would
func (s *Sim) SetInput(pin uint32, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLevel(pin, high)
}

// Script queues levels for pin. Each read of the pin's level register
// applies the next one; after the last the level stays put.
func (s *Sim) Script(pin uint32, levels ...bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[pin] = append(s.scripts[pin], levels...)
}

// Pending returns how many scripted levels remain for pin
func (s *Sim) Pending(pin uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scripts[pin])
}

// Record turns write recording on or off; turning it on clears the log
func (s *Sim) Record(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = on
	if on {
		s.writes = nil
	}
}

// Writes returns the recorded stores in order
func (s *Sim) Writes() []RegWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RegWrite(nil), s.writes...)
}

// Word returns the raw stored value of a register, bypassing loopback
func (s *Sim) Word(offset uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[offset]
}

func (s *Sim) Close() error { return nil }
