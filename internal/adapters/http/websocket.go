package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/constructtrack/platform/internal/pkg/metrics"
	"github.com/constructtrack/platform/internal/realtime"
)

// WebSocketHandler relays NATS project and notion events to clients speaking
// the realtime protocol. ?format=proto switches to binary protobuf frames.
// Clients start with no subscriptions.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		codec := realtime.CodecFor(c.Query("format"))
		frameType := websocket.TextMessage
		if codec.Binary() {
			frameType = websocket.BinaryMessage
		}

		log := slog.Default().With("remote", c.RemoteAddr().String())
		if rid, ok := c.Locals("requestid").(string); ok {
			log = log.With("request_id", rid)
		}
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		send := func(m realtime.Message) error {
			data, err := codec.Encode(m)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(frameType, data)
		}
		reply := func(t realtime.MessageType, channel, replyTo string, payload any) {
			m, err := realtime.NewMessage(t, channel, payload)
			if err != nil {
				return
			}
			if replyTo != "" {
				m.ID = replyTo
			}
			_ = send(m)
		}
		fail := func(replyTo, msg string) {
			reply(realtime.TypeError, "", replyTo, map[string]string{"error": msg})
		}

		subs := make(map[string]*nats.Subscription) // channel -> subscription

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				break
			}

			m, err := codec.Decode(data)
			if err != nil {
				fail(m.ID, err.Error())
				continue
			}

			switch m.Type {
			case realtime.TypeSubscribe:
				if _, exists := subs[m.Channel]; exists {
					reply(realtime.TypeAck, m.Channel, m.ID, map[string]string{"status": "already subscribed"})
					continue
				}
				if nc == nil {
					fail(m.ID, "event relay is not available")
					continue
				}
				subject, _ := realtime.ChannelSubject(m.Channel)
				s, err := nc.Subscribe(subject, func(msg *nats.Msg) {
					ev := realtime.Message{
						Type:      realtime.TypeEvent,
						Channel:   realtime.SubjectChannel(msg.Subject),
						Timestamp: time.Now().UTC(),
						Payload:   json.RawMessage(msg.Data),
					}
					if id := msg.Header.Get(nats.MsgIdHdr); id != "" {
						ev.ID = id
					}
					if err := send(ev); err != nil {
						log.Debug("ws relay write failed", "error", err)
					}
				})
				if err != nil {
					fail(m.ID, "subscribe failed: "+err.Error())
					continue
				}
				subs[m.Channel] = s
				reply(realtime.TypeAck, m.Channel, m.ID, map[string]string{"status": "subscribed", "subject": subject})

			case realtime.TypeUnsubscribe:
				s, exists := subs[m.Channel]
				if !exists {
					fail(m.ID, "not subscribed to "+m.Channel)
					continue
				}
				_ = s.Unsubscribe()
				delete(subs, m.Channel)
				reply(realtime.TypeAck, m.Channel, m.ID, map[string]string{"status": "unsubscribed"})

			case realtime.TypePing:
				reply(realtime.TypePong, "", m.ID, nil)

			default:
				fail(m.ID, "unexpected message type: "+string(m.Type))
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}
