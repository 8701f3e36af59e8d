// Package mqtt publishes sensor entities to Home Assistant using MQTT
// discovery.
//
// Each entity gets a retained discovery config under
// <discovery_prefix>/sensor/fo_energy_production/<area>/config and its
// state, attributes and availability under <state_prefix>/<area>/.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/foenergy/internal/api"
	"github.com/tejusbharadwaj/foenergy/internal/models"
)

const (
	nodeID         = "fo_energy_production"
	payloadOnline  = "online"
	payloadOffline = "offline"
)

var ErrPublish = errors.New("error publishing to MQTT broker")

// Publisher is the part of paho.Client used for publishing
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Config holds topic layout and delivery options
type Config struct {
	DiscoveryPrefix string
	StatePrefix     string
	QoS             byte
	Timeout         time.Duration
}

// Sink mirrors entity changes onto MQTT topics
type Sink struct {
	client Publisher
	cfg    Config
	logger *logrus.Logger
}

func (c Config) withDefaults() Config {
	if c.DiscoveryPrefix == "" {
		c.DiscoveryPrefix = "homeassistant"
	}
	if c.StatePrefix == "" {
		c.StatePrefix = nodeID
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// StatusTopic carries the bridge's own online/offline status. It is used as
// the client's last will.
func (c Config) StatusTopic() string {
	return c.withDefaults().StatePrefix + "/status"
}

func NewSink(client Publisher, cfg Config, logger *logrus.Logger) *Sink {
	return &Sink{client: client, cfg: cfg.withDefaults(), logger: logger}
}

type availability struct {
	Topic string `json:"t"`
}

type discoveryDevice struct {
	IDs          []string `json:"ids"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"mf"`
	Model        string   `json:"mdl"`
	SWVersion    string   `json:"sw"`
}

type discoveryConfig struct {
	Name                string          `json:"name"`
	UniqueID            string          `json:"uniq_id"`
	ObjectID            string          `json:"obj_id"`
	DeviceClass         string          `json:"dev_cla"`
	UnitOfMeasurement   string          `json:"unit_of_meas"`
	StateClass          string          `json:"stat_cla"`
	Icon                string          `json:"ic"`
	StateTopic          string          `json:"stat_t"`
	JSONAttributesTopic string          `json:"json_attr_t"`
	Availability        []availability  `json:"avty"`
	AvailabilityMode    string          `json:"avty_mode"`
	Device              discoveryDevice `json:"dev"`
}

func (s *Sink) configTopic(area models.AreaID) string {
	return fmt.Sprintf("%s/sensor/%s/%s/config", s.cfg.DiscoveryPrefix, nodeID, area)
}

func (s *Sink) stateTopic(area models.AreaID, leaf string) string {
	return fmt.Sprintf("%s/%s/%s", s.cfg.StatePrefix, area, leaf)
}

func (s *Sink) discovery(state models.EntityState) discoveryConfig {
	return discoveryConfig{
		Name:                state.Name,
		UniqueID:            state.UniqueID,
		ObjectID:            nodeID + "_" + string(state.Area),
		DeviceClass:         state.DeviceClass,
		UnitOfMeasurement:   state.UnitOfMeasurement,
		StateClass:          state.StateClass,
		Icon:                state.Icon,
		StateTopic:          s.stateTopic(state.Area, "state"),
		JSONAttributesTopic: s.stateTopic(state.Area, "attributes"),
		Availability: []availability{
			{Topic: s.cfg.StatusTopic()},
			{Topic: s.stateTopic(state.Area, "availability")},
		},
		AvailabilityMode: "all",
		Device: discoveryDevice{
			IDs:          []string{nodeID},
			Name:         "Faroese energy production",
			Manufacturer: "SEV",
			Model:        "Realtime production map",
			SWVersion:    api.Version,
		},
	}
}

// AddEntities publishes discovery configs and the initial state
func (s *Sink) AddEntities(ctx context.Context, states []models.EntityState) error {
	if err := s.publish(s.cfg.StatusTopic(), true, payloadOnline); err != nil {
		return err
	}

	var errs []error
	for _, state := range states {
		config, err := json.Marshal(s.discovery(state))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.publish(s.configTopic(state.Area), true, config); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.UpdateEntity(ctx, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UpdateEntity publishes availability, attributes and, when available, the
// state value
func (s *Sink) UpdateEntity(ctx context.Context, state models.EntityState) error {
	if !state.Available {
		return s.publish(s.stateTopic(state.Area, "availability"), true, payloadOffline)
	}

	attributes, err := json.Marshal(state.Attributes)
	if err != nil {
		return err
	}

	if err := s.publish(s.stateTopic(state.Area, "state"), true, state.StateString()); err != nil {
		return err
	}
	if err := s.publish(s.stateTopic(state.Area, "attributes"), true, attributes); err != nil {
		return err
	}
	return s.publish(s.stateTopic(state.Area, "availability"), true, payloadOnline)
}

// RemoveEntities clears the retained discovery configs, which makes Home
// Assistant drop the entities
func (s *Sink) RemoveEntities(ctx context.Context, states []models.EntityState) error {
	var errs []error
	for _, state := range states {
		if err := s.publish(s.stateTopic(state.Area, "availability"), true, payloadOffline); err != nil {
			errs = append(errs, err)
		}
		if err := s.publish(s.configTopic(state.Area), true, ""); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Sink) publish(topic string, retained bool, payload interface{}) error {
	token := s.client.Publish(topic, s.cfg.QoS, retained, payload)
	if !token.WaitTimeout(s.cfg.Timeout) {
		return fmt.Errorf("%w: %s: timed out", ErrPublish, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublish, topic, err)
	}

	s.logger.WithFields(logrus.Fields{
		"topic": topic,
	}).Debug("Published")
	return nil
}
