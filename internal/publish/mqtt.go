// Package publish forwards finished swings to an MQTT broker so that other
// devices on the court network can react to them.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/swing.report/internal/session"
)

const DefaultTopic = "airswing/swings"

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Options configure an MQTTPublisher. Broker is a URL such as
// tcp://localhost:1883.
type Options struct {
	Broker         string
	Topic          string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

func (o *Options) normalise() {
	if o.Topic == "" {
		o.Topic = DefaultTopic
	}
	if o.ClientID == "" {
		o.ClientID = fmt.Sprintf("swing-report-%d", time.Now().Unix())
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 2 * time.Second
	}
}

// client is the subset of mqtt.Client used here.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher is a session.Sink that publishes each swing as JSON, QoS 0,
// not retained.
type MQTTPublisher struct {
	client  client
	topic   string
	timeout time.Duration
}

// NewMQTTPublisher connects to the broker. Reconnection after a lost
// connection is left to the paho client.
func NewMQTTPublisher(opts Options) (*MQTTPublisher, error) {
	opts.normalise()

	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetConnectTimeout(opts.ConnectTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	co.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("[MQTT] connection lost: %v", err)
	}

	c := mqtt.NewClient(co)
	log.Printf("[MQTT] Connecting to %s as %s...", opts.Broker, opts.ClientID)
	token := c.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", opts.Broker, err)
	}
	return newPublisher(c, opts.Topic, opts.PublishTimeout), nil
}

func newPublisher(c client, topic string, timeout time.Duration) *MQTTPublisher {
	return &MQTTPublisher{client: c, topic: topic, timeout: timeout}
}

// Topic returns the topic swings are published on.
func (p *MQTTPublisher) Topic() string { return p.topic }

// HandleSwing publishes rec and waits for the client to hand it off.
func (p *MQTTPublisher) HandleSwing(ctx context.Context, rec session.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode swing %s: %w", rec.ID, err)
	}
	token := p.client.Publish(p.topic, 0, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish swing %s: %w", rec.ID, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: swing %s", ErrPublishTimeout, rec.ID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects, giving in-flight messages 250ms to drain.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
