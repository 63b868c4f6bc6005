package core

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Bus trace event kinds
const (
	EvtCommand = 1 // Full command byte (RS low)
	EvtData    = 2 // Data byte (RS high)
	EvtNibble  = 3 // Single nibble during 4-bit bring-up
)

const (
	TraceRingSize = 32 // Keep last 32 bus transfers for post-mortem
)

// TraceEvent captures one display bus transfer
type TraceEvent struct {
	EventType uint8 // Event type code
	Value     uint8 // Byte or nibble sent
	Col       int   // Tracked cursor after the transfer
	Row       int
}

var (
	// logger is the package logger (can be set by the command)
	logger logrus.FieldLogger = discardLogger()

	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
	traceEnabled  = true
)

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetLogger sets the logger used by core objects
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = discardLogger()
	}
	logger = l
}

func debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// SetTraceEnabled turns bus tracing on or off
func SetTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// RecordTrace captures a bus transfer in the ring buffer
func RecordTrace(eventType uint8, value uint8, col, row int) {
	if !traceEnabled {
		return
	}
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		EventType: eventType,
		Value:     value,
		Col:       col,
		Row:       row,
	}
	traceRingHead = (idx + 1) % TraceRingSize
}

// TraceEvents returns the recorded events, oldest first
func TraceEvents() []TraceEvent {
	events := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTraceRing logs the trace ring buffer (call on fatal display errors)
func DumpTraceRing() {
	logger.Info("=== LCD bus trace ===")
	for _, evt := range TraceEvents() {
		var name string
		switch evt.EventType {
		case EvtCommand:
			name = "CMD"
		case EvtData:
			name = "DATA"
		case EvtNibble:
			name = "NIBBLE"
		default:
			name = "UNKNOWN"
		}
		logger.WithFields(logrus.Fields{
			"value": evt.Value,
			"col":   evt.Col,
			"row":   evt.Row,
		}).Info(name)
	}
	logger.Info("=== end of trace ===")
}

// ClearTraceRing clears the trace buffer
func ClearTraceRing() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}
