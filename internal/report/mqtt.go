package report

import (
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publisher is the part of mqtt.Client the sink needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each line as a plain-text message.
type MQTT struct {
	client  publisher
	topic   string
	timeout time.Duration
	log     *slog.Logger
}

// NewMQTT publishes to topic with QoS 0 through client, which must
// already be connected.
func NewMQTT(client publisher, topic string, log *slog.Logger) *MQTT {
	return &MQTT{client: client, topic: topic, timeout: 2 * time.Second, log: log}
}

func (m *MQTT) Report(msg string) {
	token := m.client.Publish(m.topic, 0, false, msg)
	if !token.WaitTimeout(m.timeout) {
		m.log.Warn("MQTT publish timed out", "topic", m.topic)
		return
	}
	if err := token.Error(); err != nil {
		m.log.Warn("MQTT publish error", "topic", m.topic, "err", err)
	}
}
