// Package realtime defines the message envelope spoken on /ws.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType names what a Message carries.
type MessageType string

const (
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypeEvent       MessageType = "event"
	TypeAck         MessageType = "ack"
	TypeError       MessageType = "error"
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
)

func (t MessageType) Valid() bool {
	switch t {
	case TypeSubscribe, TypeUnsubscribe, TypeEvent, TypeAck, TypeError, TypePing, TypePong:
		return true
	}
	return false
}

// Message is the envelope for every frame in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Channel   string          `json:"channel,omitempty"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidChannel = errors.New("invalid channel")
)

// NewMessage builds a message with a fresh ID and the current time.
func NewMessage(t MessageType, channel string, payload any) (Message, error) {
	m := Message{Type: t, Channel: channel, ID: uuid.NewString(), Timestamp: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("marshal payload: %w", err)
		}
		m.Payload = raw
	}
	return m, nil
}

// Validate checks the type and, for (un)subscribe, the channel.
func (m Message) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	if m.Type == TypeSubscribe || m.Type == TypeUnsubscribe {
		if _, err := ChannelSubject(m.Channel); err != nil {
			return err
		}
	}
	return nil
}

const subjectPrefix = "constructtrack."

var channelRoots = map[string]bool{"projects": true, "notion": true}

// ChannelSubject maps a channel to the NATS subject it relays:
// "projects" -> "constructtrack.projects.>", "projects.created" ->
// "constructtrack.projects.created".
func ChannelSubject(channel string) (string, error) {
	tokens := strings.Split(channel, ".")
	if channel == "" || !channelRoots[tokens[0]] {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
	for _, tok := range tokens {
		if tok == "" || strings.ContainsAny(tok, " *>\t") {
			return "", fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
		}
	}
	if len(tokens) == 1 {
		return subjectPrefix + channel + ".>", nil
	}
	return subjectPrefix + channel, nil
}

// SubjectChannel is the inverse of ChannelSubject for concrete subjects.
func SubjectChannel(subject string) string {
	return strings.TrimPrefix(subject, subjectPrefix)
}
