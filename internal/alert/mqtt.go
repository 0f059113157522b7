package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// publisher is the subset of mqtt.Client used by the sink.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes alerts as JSON to an MQTT topic.
type MQTTSink struct {
	client publisher
	topic  string
	qos    byte
}

// NewMQTTSink connects to the broker in cfg.
func NewMQTTSink(cfg contract.AlertConfig) (*MQTTSink, error) {
	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = fmt.Sprintf("factory-%d", time.Now().UnixNano())
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, contract.ConfigErrorf("mqtt broker %s: connect timed out", cfg.MQTTBroker)
	}
	if err := token.Error(); err != nil {
		return nil, contract.ConfigErrorf("mqtt broker %s: %v", cfg.MQTTBroker, err)
	}
	return newMQTTSink(client, cfg.MQTTTopic, cfg.MQTTQoS), nil
}

func newMQTTSink(client publisher, topic string, qos byte) *MQTTSink {
	return &MQTTSink{client: client, topic: topic, qos: qos}
}

// Name implements contract.AlertSink.
func (s *MQTTSink) Name() schema.AlertChannel { return schema.MQTTChannel }

// Send implements contract.AlertSink.
func (s *MQTTSink) Send(ctx context.Context, alert schema.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	token := s.client.Publish(s.topic, s.qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements contract.AlertSink.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
