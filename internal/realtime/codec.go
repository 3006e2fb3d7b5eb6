package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec turns messages into websocket frames.
type Codec interface {
	Encode(Message) ([]byte, error)
	Decode([]byte) (Message, error)
	// Binary reports whether frames should be sent as binary.
	Binary() bool
}

// CodecFor returns the codec for a ?format= value. Unknown formats use JSON.
func CodecFor(format string) Codec {
	if format == "proto" || format == "protobuf" {
		return ProtoCodec{}
	}
	return JSONCodec{}
}

type JSONCodec struct{}

func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

func (JSONCodec) Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return m, m.Validate()
}

// ProtoCodec encodes the envelope as a google.protobuf.Struct.
type ProtoCodec struct{}

func (ProtoCodec) Binary() bool { return true }

func (ProtoCodec) Encode(m Message) ([]byte, error) {
	fields := map[string]*structpb.Value{
		"type":      structpb.NewStringValue(string(m.Type)),
		"id":        structpb.NewStringValue(m.ID),
		"timestamp": structpb.NewStringValue(m.Timestamp.Format(time.RFC3339Nano)),
	}
	if m.Channel != "" {
		fields["channel"] = structpb.NewStringValue(m.Channel)
	}
	if len(m.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return nil, fmt.Errorf("payload: %w", err)
		}
		v, err := structpb.NewValue(payload)
		if err != nil {
			return nil, fmt.Errorf("payload: %w", err)
		}
		fields["payload"] = v
	}
	return proto.Marshal(&structpb.Struct{Fields: fields})
}

func (ProtoCodec) Decode(data []byte) (Message, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	m := Message{
		Type:    MessageType(s.Fields["type"].GetStringValue()),
		Channel: s.Fields["channel"].GetStringValue(),
		ID:      s.Fields["id"].GetStringValue(),
	}
	if ts := s.Fields["timestamp"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Message{}, fmt.Errorf("timestamp: %w", err)
		}
		m.Timestamp = t
	}
	if p, ok := s.Fields["payload"]; ok {
		raw, err := json.Marshal(p.AsInterface())
		if err != nil {
			return Message{}, fmt.Errorf("payload: %w", err)
		}
		m.Payload = raw
	}
	return m, m.Validate()
}
