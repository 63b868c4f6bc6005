package game

// EventDef names one event published on the link and its argument format
type EventDef struct {
	Name   string
	Format string
}

// Event names
const (
	EvtGameStart = "game_start"
	EvtSecret    = "secret"
	EvtSymbol    = "symbol"
	EvtRoundEnd  = "round_end"
	EvtGameEnd   = "game_end"
	EvtLCD       = "lcd"
)

// Events is the dictionary of everything a session publishes
var Events = []EventDef{
	{EvtGameStart, "mode=%u length=%u colors=%u attempts=%u"},
	{EvtSecret, "index=%u value=%u"},
	{EvtSymbol, "round=%u index=%u count=%u reason=%s"},
	{EvtRoundEnd, "round=%u exact=%u color=%u outcome=%s"},
	{EvtGameEnd, "won=%c attempts=%u"},
	{EvtLCD, "row=%u text=%s"},
}

// Publisher sends events; the serial link implements it
type Publisher interface {
	Publish(name string, args ...interface{}) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, ...interface{}) error { return nil }
