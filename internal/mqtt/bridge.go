package mqtt

import (
	"encoding/json"
	"log"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"flowboard/internal/bus"
	"flowboard/internal/metrics"
)

// progressPayload mirrors the HTTP publish request body. Agents that
// cannot reach the HTTP endpoint publish the same JSON over MQTT.
type progressPayload struct {
	Session string          `json:"session"`
	Message string          `json:"message"`
	AgentID string          `json:"agentId"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// Bridge feeds progress events from an MQTT topic into the event bus.
type Bridge struct {
	client  *Client
	bus     *bus.Bus
	topic   string
	metrics *metrics.Registry
}

// NewBridge creates a bridge for the given topic filter, typically
// "agents/+/progress" where the middle segment is the session key.
func NewBridge(client *Client, b *bus.Bus, topic string, m *metrics.Registry) *Bridge {
	return &Bridge{client: client, bus: b, topic: topic, metrics: m}
}

// Start connects to the broker and subscribes. Failures are logged and
// non-fatal; the paho client keeps retrying in the background.
func (br *Bridge) Start() bool {
	return br.client.StartWithRetry(br.topic, br.handle)
}

// Stop disconnects from the broker.
func (br *Bridge) Stop() {
	br.client.Disconnect()
}

// IsConnected reports whether the broker connection is up.
func (br *Bridge) IsConnected() bool {
	return br.client.IsConnected()
}

func (br *Bridge) handle(_ paho.Client, msg paho.Message) {
	if err := br.ingest(msg.Topic(), msg.Payload()); err != nil {
		log.Printf("mqtt: dropping payload on %s: %v", msg.Topic(), err)
		if br.metrics != nil {
			br.metrics.IngressRejected.Inc()
		}
		return
	}
	if br.metrics != nil {
		br.metrics.IngressEvents.Inc()
	}
}

// ingest parses one payload and publishes it. The session comes from
// the topic segment, falling back to the payload field.
func (br *Bridge) ingest(topic string, payload []byte) error {
	var p progressPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}

	session := sessionFromTopic(topic)
	if session == "" {
		session = p.Session
	}

	return br.bus.Publish(session, bus.Event{
		Text:    p.Message,
		AgentID: p.AgentID,
		Status:  p.Status,
		Data:    p.Data,
	})
}

// sessionFromTopic extracts the session segment from
// "agents/<session>/progress". Returns "" for other shapes.
func sessionFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 3 && parts[0] == "agents" && parts[2] == "progress" {
		return parts[1]
	}
	return ""
}
