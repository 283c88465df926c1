package control

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies the type of message
type MessageType string

const (
	MsgSidebarToggle MessageType = "sidebar_toggle"
	MsgSidebarWidth  MessageType = "sidebar_width"
	MsgViewSwitch    MessageType = "view_switch"
	MsgMenuReload    MessageType = "menu_reload" // re-read terminal.select_to_copy and rebind
	MsgState         MessageType = "state"
	MsgShellSend     MessageType = "shell_send"
	MsgPing          MessageType = "ping"
	MsgPong          MessageType = "pong"
	MsgAck           MessageType = "ack"
	MsgError         MessageType = "error"
)

// Message is one JSON line on the control socket.
type Message struct {
	Type    MessageType     `json:"type"`
	ID      string          `json:"id,omitempty"` // echoed back on the response
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WidthPayload sets the sidebar width of the current view.
type WidthPayload struct {
	Width    int  `json:"width"`
	Resizing bool `json:"resizing,omitempty"`
}

// ViewPayload switches the sidebar view.
type ViewPayload struct {
	View  string `json:"view"`
	Force bool   `json:"force,omitempty"`
}

// SendPayload types text into a shell. An empty Session targets the active
// terminal; tmux pane ids ("%3") are typed into that pane.
type SendPayload struct {
	Session string `json:"session,omitempty"`
	Text    string `json:"text"`
}

// StatePayload is the answer to MsgState and the body of most acks.
type StatePayload struct {
	Collapsed     bool   `json:"collapsed"`
	View          string `json:"view"`
	Width         int    `json:"width"`
	ProfilesWidth int    `json:"profiles_width"`
	FilesWidth    int    `json:"files_width"`
	MenuMode      string `json:"menu_mode,omitempty"`
	MenuBound     bool   `json:"menu_bound"`
	Sessions      int    `json:"sessions"`
}

// ErrorPayload carries a failure message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage builds a message with payload encoded as JSON. A nil payload is omitted.
func NewMessage(t MessageType, payload any) (Message, error) {
	msg := Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	msg.Payload = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", m.Type, err)
	}
	return nil
}

func errorMessage(id string, err error) Message {
	msg, _ := NewMessage(MsgError, ErrorPayload{Message: err.Error()})
	msg.ID = id
	return msg
}
