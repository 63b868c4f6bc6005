package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"mastermind/protocol"
)

// MessageHandler handles a decoded message's raw argument data
// The handler is responsible for decoding its own arguments from the data pointer
type MessageHandler func(msg *Message, data *[]byte) error

// Param is one "name=%t" field of a message format
type Param struct {
	Name string
	Type byte // 'u', 'i', 'c' or 's'
}

// Message represents one event type on the link
type Message struct {
	ID      uint16
	Name    string
	Format  string // Format string for dictionary (e.g., "round=%u exact=%u")
	Params  []Param
	Handler MessageHandler
}

// MessageRegistry holds all registered messages
type MessageRegistry struct {
	mu         sync.RWMutex
	messages   map[uint16]*Message
	nameToID   map[string]uint16
	nextID     uint16
	dictionary string // Serialized dictionary text
}

// DictionaryJSON is the dictionary sent in the identify message
type DictionaryJSON struct {
	Version  string         `json:"version"`
	Messages map[string]int `json:"messages"`
}

var ErrUnknownMessage = errors.New("unknown message")

// NewMessageRegistry creates a new message registry
func NewMessageRegistry() *MessageRegistry {
	return &MessageRegistry{
		messages: make(map[uint16]*Message),
		nameToID: make(map[string]uint16),
		nextID:   0,
	}
}

// ParseFormat splits "a=%u b=%s" into params
func ParseFormat(format string) ([]Param, error) {
	var params []Param
	for _, field := range strings.Fields(format) {
		eq := strings.IndexByte(field, '=')
		if eq <= 0 || eq+3 != len(field) || field[eq+1] != '%' {
			return nil, fmt.Errorf("bad format field %q", field)
		}
		t := field[eq+2]
		switch t {
		case 'u', 'i', 'c', 's':
		default:
			return nil, fmt.Errorf("bad format type %q in %q", t, field)
		}
		params = append(params, Param{Name: field[:eq], Type: t})
	}
	return params, nil
}

// Register adds a message to the registry and returns its ID
func (r *MessageRegistry) Register(name string, format string, handler MessageHandler) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check if already registered
	if id, exists := r.nameToID[name]; exists {
		return id, nil
	}

	id := r.nextID
	if err := r.addLocked(id, name, format, handler); err != nil {
		return 0, err
	}
	return id, nil
}

// RegisterWithID adds a message under a fixed ID (used when a dictionary
// is received from the other side of the link)
func (r *MessageRegistry) RegisterWithID(id uint16, name string, format string, handler MessageHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.messages[id]; exists {
		return fmt.Errorf("message id %d already registered", id)
	}
	return r.addLocked(id, name, format, handler)
}

func (r *MessageRegistry) addLocked(id uint16, name, format string, handler MessageHandler) error {
	params, err := ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	r.messages[id] = &Message{
		ID:      id,
		Name:    name,
		Format:  format,
		Params:  params,
		Handler: handler,
	}
	r.nameToID[name] = id
	if id >= r.nextID {
		r.nextID = id + 1
	}

	r.rebuildDictionary()
	return nil
}

// GetMessage retrieves a message by ID
func (r *MessageRegistry) GetMessage(id uint16) (*Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.messages[id]
	return msg, ok
}

// GetMessageByName retrieves a message by name
func (r *MessageRegistry) GetMessageByName(name string) (*Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.messages[id], true
}

// Count returns the number of registered messages
func (r *MessageRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}

// Dispatch calls the handler of message id
func (r *MessageRegistry) Dispatch(id uint16, data *[]byte) error {
	msg, ok := r.GetMessage(id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownMessage, id)
	}
	if msg.Handler == nil {
		return nil
	}
	return msg.Handler(msg, data)
}

// GetDictionary returns the dictionary text, one "name format" per line
func (r *MessageRegistry) GetDictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// rebuildDictionary rebuilds the dictionary string
// Must be called with lock held
func (r *MessageRegistry) rebuildDictionary() {
	var sb strings.Builder
	for i := uint16(0); i < r.nextID; i++ {
		if msg, ok := r.messages[i]; ok {
			sb.WriteString(msg.Name)
			if msg.Format != "" {
				sb.WriteString(" " + msg.Format)
			}
			sb.WriteString("\n")
		}
	}
	r.dictionary = sb.String()
}

// GenerateJSON returns the JSON dictionary keyed by "name format"
func (r *MessageRegistry) GenerateJSON(version string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := DictionaryJSON{Version: version, Messages: make(map[string]int)}
	for id, msg := range r.messages {
		key := msg.Name
		if msg.Format != "" {
			key += " " + msg.Format
		}
		d.Messages[key] = int(id)
	}
	return json.Marshal(d)
}

// LoadJSON registers every message of a JSON dictionary, all with handler
func (r *MessageRegistry) LoadJSON(data []byte, handler MessageHandler) (string, error) {
	var d DictionaryJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return "", fmt.Errorf("dictionary: %w", err)
	}

	keys := make([]string, 0, len(d.Messages))
	for k := range d.Messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name, format, _ := strings.Cut(key, " ")
		if err := r.RegisterWithID(uint16(d.Messages[key]), name, format, handler); err != nil {
			return "", err
		}
	}
	return d.Version, nil
}

// Encode writes args in the order of the message params
func (m *Message) Encode(output protocol.OutputBuffer, args ...interface{}) error {
	if len(args) != len(m.Params) {
		return fmt.Errorf("%s: expected %d args, got %d", m.Name, len(m.Params), len(args))
	}
	for i, p := range m.Params {
		switch p.Type {
		case 's':
			s, ok := args[i].(string)
			if !ok {
				return fmt.Errorf("%s: %s: expected string, got %T", m.Name, p.Name, args[i])
			}
			protocol.EncodeVLQString(output, s)
		default:
			v, err := toInt32(args[i])
			if err != nil {
				return fmt.Errorf("%s: %s: %w", m.Name, p.Name, err)
			}
			protocol.EncodeVLQInt(output, v)
		}
	}
	return nil
}

// Decode reads the message params from data
func (m *Message) Decode(data *[]byte) ([]interface{}, error) {
	values := make([]interface{}, 0, len(m.Params))
	for _, p := range m.Params {
		switch p.Type {
		case 's':
			s, err := protocol.DecodeVLQString(data)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		case 'i':
			v, err := protocol.DecodeVLQInt(data)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		case 'c':
			v, err := protocol.DecodeVLQUint(data)
			if err != nil {
				return nil, err
			}
			values = append(values, uint8(v))
		default:
			v, err := protocol.DecodeVLQUint(data)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	}
	return values, nil
}

// Render formats decoded values as "name a=1 b=2"
func (m *Message) Render(values []interface{}) string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	for i, p := range m.Params {
		if i >= len(values) {
			break
		}
		fmt.Fprintf(&sb, " %s=%v", p.Name, values[i])
	}
	return sb.String()
}

func toInt32(v interface{}) (int32, error) {
	switch n := v.(type) {
	case int:
		return int32(n), nil
	case int32:
		return n, nil
	case int64:
		return int32(n), nil
	case uint8:
		return int32(n), nil
	case uint16:
		return int32(n), nil
	case uint32:
		return int32(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported argument type %T", v)
}
