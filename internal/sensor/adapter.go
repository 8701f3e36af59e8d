//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/sensor.go -package=mocks . Source,Sink

// Package sensor bridges the host's polling schedule and SEV's production
// data.
//
// An Adapter owns one Entity per configured area. Every Refresh performs a
// single fetch and replaces each entity's reading with the new one, or marks
// the entity unavailable when its area could not be read. Hosts learn about
// entities through the Sink interface; nothing here is global.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/foenergy/internal/api"
	"github.com/tejusbharadwaj/foenergy/internal/models"
)

var ErrConfiguration = errors.New("invalid configuration")

// Source provides the current production data
type Source interface {
	Fetch(ctx context.Context) (*api.Snapshot, error)
}

// Sink receives entity lifecycle and state changes from the adapter
type Sink interface {
	AddEntities(ctx context.Context, states []models.EntityState) error
	UpdateEntity(ctx context.Context, state models.EntityState) error
	RemoveEntities(ctx context.Context, states []models.EntityState) error
}

// Option customizes an Adapter
type Option func(*Adapter)

// WithSinks registers sinks that are told about entity changes
func WithSinks(sinks ...Sink) Option {
	return func(a *Adapter) {
		a.sinks = append(a.sinks, sinks...)
	}
}

// WithClock overrides the clock used to timestamp unavailable entities
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// Adapter keeps the sensor entities of the configured areas up to date
type Adapter struct {
	// mu serializes refreshes triggered by the scheduler and by hand
	mu       sync.Mutex
	source   Source
	sinks    []Sink
	areas    []models.AreaID
	entities map[models.AreaID]*Entity
	logger   *logrus.Logger
	now      func() time.Time
}

// ParseAreas validates configured area names. The list must not be empty
// and every name must be a known area. Duplicates are dropped.
func ParseAreas(names []string) ([]models.AreaID, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no areas configured", ErrConfiguration)
	}

	seen := make(map[models.AreaID]bool, len(names))
	areas := make([]models.AreaID, 0, len(names))
	for _, name := range names {
		area, err := models.ParseAreaID(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		if seen[area] {
			continue
		}
		seen[area] = true
		areas = append(areas, area)
	}

	return areas, nil
}

// Configure validates the area list and creates one unavailable entity per
// area. The entities are announced to every sink before returning. No
// entity is created when validation fails.
func Configure(ctx context.Context, names []string, source Source, logger *logrus.Logger, opts ...Option) (*Adapter, error) {
	areas, err := ParseAreas(names)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: no production data source", ErrConfiguration)
	}

	a := &Adapter{
		source:   source,
		areas:    areas,
		entities: make(map[models.AreaID]*Entity, len(areas)),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, area := range areas {
		a.logger.WithFields(logrus.Fields{
			"area": area,
			"name": area.Name(),
		}).Info("Start monitoring area")
		a.entities[area] = newEntity(area)
	}

	states := a.states()
	for _, sink := range a.sinks {
		if err := sink.AddEntities(ctx, states); err != nil {
			a.logger.WithError(err).Error("Failed to register entities")
		}
	}

	return a, nil
}

// Areas returns the configured areas in configuration order
func (a *Adapter) Areas() []models.AreaID {
	return append([]models.AreaID(nil), a.areas...)
}

// Entities returns the current state of every entity in configuration order
func (a *Adapter) Entities() []models.EntityState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.states()
}

func (a *Adapter) states() []models.EntityState {
	states := make([]models.EntityState, 0, len(a.areas))
	for _, area := range a.areas {
		states = append(states, a.entities[area].State())
	}
	return states
}

// Refresh fetches production data once and updates every entity.
//
// A failed fetch marks all entities unavailable. An area missing from the
// payload only marks its own entity unavailable. Errors are logged and never
// returned.
func (a *Adapter) Refresh(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := a.logger.WithField("refresh_id", uuid.NewString())

	snapshot, err := a.source.Fetch(ctx)
	if err == nil && snapshot == nil {
		err = errors.New("no production data returned")
	}

	if err != nil {
		logger.WithError(err).Error("Error fetching energy data")
		at := a.now()
		for _, area := range a.areas {
			a.entities[area].markUnavailable(at)
		}
	} else {
		for _, area := range a.areas {
			entity := a.entities[area]
			if reading, ok := snapshot.Readings[area]; ok {
				entity.apply(reading)
				continue
			}

			reason := snapshot.Errors[area]
			if reason == nil {
				reason = errors.New("area missing from payload")
			}
			logger.WithFields(logrus.Fields{
				"area": area,
			}).WithError(reason).Warn("Area unavailable")
			entity.markUnavailable(snapshot.FetchedAt)
		}
	}

	for _, state := range a.states() {
		for _, sink := range a.sinks {
			if err := sink.UpdateEntity(ctx, state); err != nil {
				logger.WithFields(logrus.Fields{
					"entity_id": state.EntityID,
				}).WithError(err).Error("Failed to publish entity state")
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"available": a.availableCount(),
		"areas":     len(a.areas),
	}).Debug("Refresh complete")
}

func (a *Adapter) availableCount() int {
	n := 0
	for _, entity := range a.entities {
		if entity.Available() {
			n++
		}
	}
	return n
}

// Close marks every entity unavailable and removes them from all sinks
func (a *Adapter) Close(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	at := a.now()
	for _, area := range a.areas {
		a.entities[area].markUnavailable(at)
	}

	states := a.states()
	for _, sink := range a.sinks {
		if err := sink.RemoveEntities(ctx, states); err != nil {
			a.logger.WithError(err).Error("Failed to remove entities")
		}
	}
}
