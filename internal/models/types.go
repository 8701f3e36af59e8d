package models

import (
	"fmt"
	"time"
)

// AreaID identifies a region SEV reports production for
type AreaID string

const (
	AreaSuduroy AreaID = "suduroy"
	AreaMain    AreaID = "main"
	AreaTotal   AreaID = "total"
)

// Areas lists every known area in display order
var Areas = []AreaID{AreaSuduroy, AreaMain, AreaTotal}

// ParseAreaID maps a configured area string onto an AreaID. Only the exact
// lowercase identifiers are accepted.
func ParseAreaID(s string) (AreaID, error) {
	switch AreaID(s) {
	case AreaSuduroy:
		return AreaSuduroy, nil
	case AreaMain:
		return AreaMain, nil
	case AreaTotal:
		return AreaTotal, nil
	default:
		return "", fmt.Errorf("unknown area: %q", s)
	}
}

// Name returns the human readable area name
func (a AreaID) Name() string {
	switch a {
	case AreaSuduroy:
		return "Suðuroy"
	case AreaMain:
		return "Main area"
	case AreaTotal:
		return "All production"
	default:
		return string(a)
	}
}

// Source is a kind of power production
type Source string

const (
	SourceOil        Source = "oil"
	SourceWind       Source = "wind"
	SourceHydro      Source = "hydro"
	SourceSolar      Source = "solar"
	SourceBiogas     Source = "biogas"
	SourceTidal      Source = "tidal"
	SourceFossilFree Source = "fossilFree"
)

// PhysicalSources are the sources reported by the provider. FossilFree is
// derived from them.
var PhysicalSources = []Source{SourceOil, SourceWind, SourceHydro, SourceSolar, SourceBiogas, SourceTidal}

// AllSources is PhysicalSources followed by SourceFossilFree
var AllSources = append(append([]Source{}, PhysicalSources...), SourceFossilFree)

// Kind selects between absolute power and share of production
type Kind string

const (
	KindEnergy  Kind = "e"
	KindPercent Kind = "p"
)

// Unit returns the unit of measurement for values of this kind
func (k Kind) Unit() string {
	if k == KindPercent {
		return "%"
	}
	return UnitMegawatt
}

const UnitMegawatt = "MW"

// SourceValue holds both figures the provider reports for one source
type SourceValue struct {
	Energy  float64 `json:"e"`
	Percent float64 `json:"p"`
}

// ProductionReading is the result of one successful fetch for one area
type ProductionReading struct {
	Area         AreaID                 `json:"area"`
	Value        float64                `json:"value"`
	Unit         string                 `json:"unit"`
	Timestamp    time.Time              `json:"timestamp"`
	ProviderTime string                 `json:"provider_time"`
	Sources      map[Source]SourceValue `json:"sources"`
}

// EntityState is the host facing view of a sensor entity
type EntityState struct {
	EntityID          string                 `json:"entity_id"`
	UniqueID          string                 `json:"unique_id"`
	Area              AreaID                 `json:"area"`
	Name              string                 `json:"name"`
	Available         bool                   `json:"available"`
	Value             float64                `json:"value"`
	UnitOfMeasurement string                 `json:"unit_of_measurement"`
	DeviceClass       string                 `json:"device_class"`
	StateClass        string                 `json:"state_class"`
	Icon              string                 `json:"icon"`
	Attributes        map[string]interface{} `json:"attributes"`
	LastUpdated       time.Time              `json:"last_updated"`
}

// StateString renders the state the way Home Assistant displays it
func (s EntityState) StateString() string {
	if !s.Available {
		return "unavailable"
	}
	return fmt.Sprintf("%.2f", s.Value)
}
