package api

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/foenergy/internal/models"
)

func loadFixture(t *testing.T) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile("testdata/realtime.json")
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func encode(t *testing.T, payload map[string]interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func TestParse(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC)

	snapshot, err := Parse(encode(t, loadFixture(t)), fetchedAt)
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Empty(t, snapshot.Errors)
	assert.Len(t, snapshot.Readings, 3)
	assert.Equal(t, "01-05-2024 12:00:00", snapshot.ProviderTime)
	assert.Equal(t, fetchedAt, snapshot.FetchedAt)

	suduroy := snapshot.Readings[models.AreaSuduroy]
	assert.Equal(t, models.AreaSuduroy, suduroy.Area)
	assert.Equal(t, models.UnitMegawatt, suduroy.Unit)
	assert.Equal(t, fetchedAt, suduroy.Timestamp)
	assert.InDelta(t, 10.0, suduroy.Value, 1e-9)
	assert.InDelta(t, 5.2, suduroy.Sources[models.SourceOil].Energy, 1e-9)
	assert.InDelta(t, 52.0, suduroy.Sources[models.SourceOil].Percent, 1e-9)
	assert.Equal(t, models.SourceValue{}, suduroy.Sources[models.SourceBiogas])
	assert.Equal(t, models.SourceValue{}, suduroy.Sources[models.SourceTidal])
	assert.InDelta(t, 4.8, suduroy.Sources[models.SourceFossilFree].Energy, 1e-9)
	assert.InDelta(t, 48.0, suduroy.Sources[models.SourceFossilFree].Percent, 1e-9)

	main := snapshot.Readings[models.AreaMain]
	assert.InDelta(t, 50.0, main.Value, 1e-9)
	assert.Equal(t, models.SourceValue{}, main.Sources[models.SourceSolar])
	assert.InDelta(t, 29.5, main.Sources[models.SourceFossilFree].Energy, 1e-9)

	total := snapshot.Readings[models.AreaTotal]
	assert.InDelta(t, 60.0, total.Value, 1e-9)
	assert.InDelta(t, 3.0, total.Sources[models.SourceTidal].Energy, 1e-9)
	assert.InDelta(t, 5.0, total.Sources[models.SourceTidal].Percent, 1e-9)
	assert.InDelta(t, 34.3, total.Sources[models.SourceFossilFree].Energy, 1e-9)
	assert.Len(t, total.Sources, len(models.AllSources))
}

func TestParseMissingAreaField(t *testing.T) {
	payload := loadFixture(t)
	delete(payload, "VindH_E")

	snapshot, err := Parse(encode(t, payload), time.Now())
	require.NoError(t, err)

	assert.Contains(t, snapshot.Readings, models.AreaSuduroy)
	assert.Contains(t, snapshot.Readings, models.AreaTotal)
	assert.NotContains(t, snapshot.Readings, models.AreaMain)

	areaErr := snapshot.Errors[models.AreaMain]
	require.Error(t, areaErr)
	assert.True(t, errors.Is(areaErr, ErrMissingField))
	assert.Contains(t, areaErr.Error(), "VindH_E")

	var ae *AreaError
	require.True(t, errors.As(areaErr, &ae))
	assert.Equal(t, models.AreaMain, ae.Area)
}

func TestParseInvalidValue(t *testing.T) {
	payload := loadFixture(t)
	payload["SolS_P"] = "n/a"
	payload["OlieSev_E"] = nil

	snapshot, err := Parse(encode(t, payload), time.Now())
	require.NoError(t, err)

	assert.Len(t, snapshot.Readings, 1)
	assert.Contains(t, snapshot.Readings, models.AreaMain)
	assert.True(t, errors.Is(snapshot.Errors[models.AreaSuduroy], ErrInvalidValue))
	assert.True(t, errors.Is(snapshot.Errors[models.AreaTotal], ErrInvalidValue))
}

func TestParseNonFiniteValue(t *testing.T) {
	payload := loadFixture(t)
	payload["OlieS_E"] = "NaN"
	payload["VindSev_P"] = "-Inf"

	snapshot, err := Parse(encode(t, payload), time.Now())
	require.NoError(t, err)

	assert.Len(t, snapshot.Readings, 1)
	assert.Contains(t, snapshot.Readings, models.AreaMain)
	assert.NotContains(t, snapshot.Errors, models.AreaMain)
	assert.True(t, errors.Is(snapshot.Errors[models.AreaSuduroy], ErrInvalidValue))
	assert.True(t, errors.Is(snapshot.Errors[models.AreaTotal], ErrInvalidValue))
}

func TestParseDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "html page", body: "<html><body>maintenance</body></html>"},
		{name: "array", body: "[1, 2, 3]"},
		{name: "null document", body: "null"},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot, err := Parse([]byte(tt.body), time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
			assert.Nil(t, snapshot)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "comma decimal", raw: `"12,5"`, want: 12.5},
		{name: "dot decimal", raw: `"12.5"`, want: 12.5},
		{name: "padded string", raw: `" 7,25 "`, want: 7.25},
		{name: "json number", raw: `3.75`, want: 3.75},
		{name: "integer string", raw: `"40"`, want: 40},
		{name: "negative", raw: `"-0,3"`, want: -0.3},
		{name: "empty string", raw: `""`, wantErr: true},
		{name: "text", raw: `"n/a"`, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
		{name: "object", raw: `{}`, wantErr: true},
		{name: "nan", raw: `"NaN"`, wantErr: true},
		{name: "infinity", raw: `"Inf"`, wantErr: true},
		{name: "signed infinity", raw: `"+Inf"`, wantErr: true},
		{name: "negative infinity", raw: `"-Infinity"`, wantErr: true},
		{name: "overflowing number", raw: `1e999`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseNumber(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "VindS_E", FieldName(models.AreaSuduroy, models.SourceWind, models.KindEnergy))
	assert.Equal(t, "OlieH_P", FieldName(models.AreaMain, models.SourceOil, models.KindPercent))
	assert.Equal(t, "BiogasSev_E", FieldName(models.AreaTotal, models.SourceBiogas, models.KindEnergy))
}
