package sensor

import (
	"time"

	"github.com/tejusbharadwaj/foenergy/internal/models"
)

const (
	EntityIDPrefix = "sensor.fo_energy_production_"
	UniqueIDPrefix = "c_fo_energy_production_"
	Attribution    = "Data provided by the sev (sev.fo)"

	deviceClass = "power"
	stateClass  = "measurement"
	icon        = "mdi:transmission-tower"
)

// EntityID returns the entity id used for an area
func EntityID(area models.AreaID) string {
	return EntityIDPrefix + string(area)
}

// Entity is the sensor for one area. It only ever holds the reading of the
// latest refresh.
type Entity struct {
	area        models.AreaID
	reading     *models.ProductionReading
	lastUpdated time.Time
}

func newEntity(area models.AreaID) *Entity {
	return &Entity{area: area}
}

func (e *Entity) apply(reading models.ProductionReading) {
	e.reading = &reading
	e.lastUpdated = reading.Timestamp
}

func (e *Entity) markUnavailable(at time.Time) {
	e.reading = nil
	e.lastUpdated = at
}

// Available reports whether the last refresh produced a value
func (e *Entity) Available() bool {
	return e.reading != nil
}

// State builds the host facing state. The attribute map is freshly
// allocated on every call.
func (e *Entity) State() models.EntityState {
	state := models.EntityState{
		EntityID:          EntityID(e.area),
		UniqueID:          UniqueIDPrefix + string(e.area),
		Area:              e.area,
		Name:              e.area.Name() + ", energy production",
		UnitOfMeasurement: models.UnitMegawatt,
		DeviceClass:       deviceClass,
		StateClass:        stateClass,
		Icon:              icon,
		LastUpdated:       e.lastUpdated,
		Attributes: map[string]interface{}{
			"attribution": Attribution,
		},
	}

	if e.reading == nil {
		return state
	}

	state.Available = true
	state.Value = e.reading.Value
	state.Attributes["date"] = e.reading.ProviderTime
	for _, source := range models.AllSources {
		value := e.reading.Sources[source]
		state.Attributes[string(source)+"_"+string(models.KindEnergy)] = value.Energy
		state.Attributes[string(source)+"_"+string(models.KindPercent)] = value.Percent
	}

	return state
}
