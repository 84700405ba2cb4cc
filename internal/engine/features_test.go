package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threat-intel-service/internal/model"
)

func TestExtractFeatures(t *testing.T) {
	ev := model.AttackEvent{
		ID:            "attack_1",
		AttackType:    "DDoS",
		SourceCountry: "Russia",
		TargetCountry: "United States",
		SourceLat:     61.5240,
		SourceLng:     105.3188,
		Intensity:     7,
		// 2024-01-15 is a Monday.
		Timestamp: "2024-01-15T10:30:00Z",
	}

	vec, err := extractFeatures(ev)
	require.NoError(t, err)

	assert.Equal(t, 10.0, vec[0], "hour of day")
	assert.Equal(t, 0.0, vec[1], "Monday maps to 0")
	assert.Equal(t, 3.0, vec[2], "Russia code")
	assert.Equal(t, 1.0, vec[3], "DDoS code")
	assert.Equal(t, 7.0, vec[4], "intensity")
	assert.Equal(t, 1.0, vec[5], "United States code")
	assert.InDelta(t, 61.5240/90, vec[6], 1e-9)
	assert.InDelta(t, 105.3188/180, vec[7], 1e-9)
}

func TestExtractFeaturesUnknownValuesMapToZero(t *testing.T) {
	ev := model.AttackEvent{
		ID:            "attack_2",
		AttackType:    "Quantum Hack",
		SourceCountry: "Atlantis",
		TargetCountry: "Mu",
		Intensity:     3,
		Timestamp:     "2024-01-16T00:00:00Z",
	}

	vec, err := extractFeatures(ev)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vec[2])
	assert.Equal(t, 0.0, vec[3])
	assert.Equal(t, 0.0, vec[5])
}

func TestExtractFeaturesMalformedTimestamp(t *testing.T) {
	ev := model.AttackEvent{
		ID:        "attack_3",
		Timestamp: "yesterday at noon",
	}

	_, err := extractFeatures(ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestValidateEvent(t *testing.T) {
	valid := model.AttackEvent{
		ID:            "attack_4",
		AttackType:    "Malware",
		SourceCountry: "China",
		TargetCountry: "Germany",
		Intensity:     5,
		Timestamp:     "2024-01-15T10:00:00Z",
	}
	require.NoError(t, ValidateEvent(valid))

	cases := map[string]model.AttackEvent{
		"missing id": func() model.AttackEvent {
			ev := valid
			ev.ID = ""
			return ev
		}(),
		"bad timestamp": func() model.AttackEvent {
			ev := valid
			ev.Timestamp = "not-a-time"
			return ev
		}(),
		"intensity too low": func() model.AttackEvent {
			ev := valid
			ev.Intensity = 0
			return ev
		}(),
		"intensity too high": func() model.AttackEvent {
			ev := valid
			ev.Intensity = 11
			return ev
		}(),
		"same source and target": func() model.AttackEvent {
			ev := valid
			ev.TargetCountry = ev.SourceCountry
			return ev
		}(),
	}

	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateEvent(ev)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}
