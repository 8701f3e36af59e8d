package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tejusbharadwaj/foenergy/internal/models"
)

var (
	ErrDecode       = errors.New("failed to decode production data")
	ErrMissingField = errors.New("missing field")
	ErrInvalidValue = errors.New("invalid value")
)

// AreaError reports a problem that only affects one area
type AreaError struct {
	Area models.AreaID
	Err  error
}

func (e *AreaError) Error() string {
	return fmt.Sprintf("area %s: %v", e.Area, e.Err)
}

func (e *AreaError) Unwrap() error {
	return e.Err
}

// Snapshot is everything extracted from one provider response
type Snapshot struct {
	FetchedAt    time.Time
	ProviderTime string
	Readings     map[models.AreaID]models.ProductionReading
	Errors       map[models.AreaID]error
}

// timeField holds the provider's own timestamp
const timeField = "tiden"

// Field names are <prefix><suffix>_<E|P>, e.g. VindS_E for wind power on
// Suðuroy.
var sourcePrefixes = map[models.Source]string{
	models.SourceOil:    "Olie",
	models.SourceWind:   "Vind",
	models.SourceHydro:  "Vand",
	models.SourceSolar:  "Sol",
	models.SourceBiogas: "Biogas",
	models.SourceTidal:  "Tidal",
}

type areaLayout struct {
	suffix string
	// sources the provider reports for the area, the rest are always zero
	sources []models.Source
}

var areaLayouts = map[models.AreaID]areaLayout{
	models.AreaSuduroy: {
		suffix:  "S",
		sources: []models.Source{models.SourceOil, models.SourceWind, models.SourceHydro, models.SourceSolar},
	},
	models.AreaMain: {
		suffix:  "H",
		sources: []models.Source{models.SourceOil, models.SourceWind, models.SourceHydro, models.SourceBiogas, models.SourceTidal},
	},
	models.AreaTotal: {
		suffix:  "Sev",
		sources: models.PhysicalSources,
	},
}

// FieldName returns the payload key for a source, area and kind
func FieldName(area models.AreaID, source models.Source, kind models.Kind) string {
	return sourcePrefixes[source] + areaLayouts[area].suffix + "_" + strings.ToUpper(string(kind))
}

// Parse maps a provider payload onto per-area readings.
//
// Only a body that is not a JSON object fails the whole parse. Every area
// whose fields are missing or malformed is left out of Readings and
// reported in Errors instead.
func Parse(body []byte, fetchedAt time.Time) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrDecode)
	}

	snapshot := &Snapshot{
		FetchedAt:    fetchedAt,
		ProviderTime: parseProviderTime(raw[timeField]),
		Readings:     make(map[models.AreaID]models.ProductionReading),
		Errors:       make(map[models.AreaID]error),
	}

	for _, area := range models.Areas {
		sources, err := parseArea(raw, area)
		if err != nil {
			snapshot.Errors[area] = &AreaError{Area: area, Err: err}
			continue
		}

		var total float64
		for _, source := range models.PhysicalSources {
			total += sources[source].Energy
		}

		snapshot.Readings[area] = models.ProductionReading{
			Area:         area,
			Value:        total,
			Unit:         models.UnitMegawatt,
			Timestamp:    fetchedAt,
			ProviderTime: snapshot.ProviderTime,
			Sources:      sources,
		}
	}

	return snapshot, nil
}

func parseArea(raw map[string]json.RawMessage, area models.AreaID) (map[models.Source]models.SourceValue, error) {
	layout := areaLayouts[area]
	sources := make(map[models.Source]models.SourceValue, len(models.AllSources))
	for _, source := range models.PhysicalSources {
		sources[source] = models.SourceValue{}
	}

	for _, source := range layout.sources {
		var value models.SourceValue
		var err error
		if value.Energy, err = field(raw, FieldName(area, source, models.KindEnergy)); err != nil {
			return nil, err
		}
		if value.Percent, err = field(raw, FieldName(area, source, models.KindPercent)); err != nil {
			return nil, err
		}
		sources[source] = value
	}

	var fossilFree models.SourceValue
	for _, source := range models.PhysicalSources {
		if source == models.SourceOil {
			continue
		}
		fossilFree.Energy += sources[source].Energy
		fossilFree.Percent += sources[source].Percent
	}
	sources[models.SourceFossilFree] = fossilFree

	return sources, nil
}

func field(raw map[string]json.RawMessage, name string) (float64, error) {
	value, ok := raw[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	f, err := parseNumber(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
	}
	return f, nil
}

// parseNumber accepts JSON numbers and strings using either a comma or a
// dot as decimal separator. NaN and infinities are rejected.
func parseNumber(value json.RawMessage) (float64, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return 0, errors.New("null")
	}

	var f float64
	if value[0] == '"' {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return 0, err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if s == "" {
			return 0, errors.New("empty string")
		}
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, err
		}
	} else if err := json.Unmarshal(value, &f); err != nil {
		return 0, err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %s", value)
	}
	return f, nil
}

func parseProviderTime(value json.RawMessage) string {
	if len(value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(value))
}
