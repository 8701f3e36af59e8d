package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// ClientConfig describes the broker connection
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// WillTopic receives payloadOffline when the connection drops
	WillTopic string
}

// Connect dials the broker. The client keeps retrying in the background
// after the first connection is established.
func Connect(cfg ClientConfig, timeout time.Duration, logger *logrus.Logger) (paho.Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetConnectRetry(true)
	opts.SetAutoReconnect(true)
	if cfg.WillTopic != "" {
		opts.SetWill(cfg.WillTopic, payloadOffline, 0, true)
	}
	opts.OnConnect = func(client paho.Client) {
		logger.WithFields(logrus.Fields{"broker": cfg.Broker}).Info("Connected to MQTT broker")
		if cfg.WillTopic != "" {
			client.Publish(cfg.WillTopic, 0, true, payloadOnline)
		}
	}
	opts.OnConnectionLost = func(client paho.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost")
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connecting to MQTT broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", cfg.Broker, err)
	}
	return client, nil
}
