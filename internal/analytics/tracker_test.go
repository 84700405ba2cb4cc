package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerPeakHours(t *testing.T) {
	tr := NewTracker()

	for i := 0; i < 6; i++ {
		tr.RecordRequest(14, 200)
	}
	for i := 0; i < 3; i++ {
		tr.RecordRequest(9, 200)
	}
	tr.RecordRequest(23, 404)

	report := tr.PeakHours()
	assert.Equal(t, 10, report.TotalRequests)
	require.Len(t, report.PeakHours, 3)

	assert.Equal(t, 14, report.PeakHours[0].Hour)
	assert.Equal(t, 6, report.PeakHours[0].Requests)
	assert.Equal(t, 60.0, report.PeakHours[0].Percentage)

	assert.Equal(t, 9, report.PeakHours[1].Hour)
	assert.Equal(t, 23, report.PeakHours[2].Hour)
}

func TestTrackerIgnoresOutOfRangeHour(t *testing.T) {
	tr := NewTracker()
	tr.RecordRequest(-1, 200)
	tr.RecordRequest(24, 200)

	assert.Equal(t, 0, tr.PeakHours().TotalRequests)
}

func TestTrackerStatusCodes(t *testing.T) {
	tr := NewTracker()

	for i := 0; i < 7; i++ {
		tr.RecordRequest(10, 200)
	}
	for i := 0; i < 2; i++ {
		tr.RecordRequest(10, 404)
	}
	tr.RecordRequest(10, 500)

	report := tr.StatusCodes()
	assert.Equal(t, 10, report.TotalRequests)
	require.Len(t, report.Distribution, 3)

	assert.Equal(t, 200, report.Distribution[0].Code)
	assert.Equal(t, 7, report.Distribution[0].Count)
	assert.Equal(t, 70.0, report.Distribution[0].Percentage)
	assert.Equal(t, 404, report.Distribution[1].Code)
	assert.Equal(t, 500, report.Distribution[2].Code)
}

func TestTrackerGeoDistribution(t *testing.T) {
	tr := NewTracker()

	for i := 0; i < 5; i++ {
		tr.RecordAttack("Russia", "DDoS")
	}
	for i := 0; i < 3; i++ {
		tr.RecordAttack("China", "Malware")
	}
	tr.RecordAttack("Brazil", "Phishing")
	tr.RecordAttack("Brazil", "DDoS")

	report := tr.GeoDistribution()
	require.Len(t, report.Countries, 3)
	assert.Equal(t, "Russia", report.Countries[0].Country)
	assert.Equal(t, 5, report.Countries[0].Count)
	assert.Equal(t, 50.0, report.Countries[0].Percentage)
	assert.Equal(t, "China", report.Countries[1].Country)
	assert.Equal(t, "Brazil", report.Countries[2].Country)

	require.Len(t, report.AttackTypes, 3)
	assert.Equal(t, "DDoS", report.AttackTypes[0].Type)
	assert.Equal(t, 6, report.AttackTypes[0].Count)
}

func TestTrackerEmptyReports(t *testing.T) {
	tr := NewTracker()

	assert.Empty(t, tr.PeakHours().PeakHours)
	assert.Empty(t, tr.StatusCodes().Distribution)
	assert.Empty(t, tr.GeoDistribution().Countries)
	assert.Empty(t, tr.GeoDistribution().AttackTypes)
}
