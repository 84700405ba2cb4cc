package analytics

import (
	"math"
	"sort"
	"sync"

	"threat-intel-service/internal/model"
)

// Tracker maintains the rolling traffic and attack distributions served by
// the analytics endpoints: hourly request volume, status codes, source-geo
// and attack-type counts.
type Tracker struct {
	mu            sync.RWMutex
	hourlyTraffic [24]int
	statusCodes   map[int]int
	geoCounts     map[string]int
	attackTypes   map[string]int
	totalRequests int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		statusCodes: make(map[int]int),
		geoCounts:   make(map[string]int),
		attackTypes: make(map[string]int),
	}
}

// RecordRequest counts one request in the hourly and status-code
// distributions. hour is the local hour of day [0,23].
func (t *Tracker) RecordRequest(hour, statusCode int) {
	if hour < 0 || hour > 23 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hourlyTraffic[hour]++
	t.statusCodes[statusCode]++
	t.totalRequests++
}

// RecordAttack counts one attack in the geo and attack-type distributions.
func (t *Tracker) RecordAttack(sourceCountry, attackType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.geoCounts[sourceCountry]++
	t.attackTypes[attackType]++
}

// PeakHours reports per-hour request counts sorted busiest-first.
func (t *Tracker) PeakHours() model.PeakHoursReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, c := range t.hourlyTraffic {
		total += c
	}

	hours := make([]model.PeakHour, 0, 24)
	for h, c := range t.hourlyTraffic {
		if c == 0 {
			continue
		}
		hours = append(hours, model.PeakHour{
			Hour:       h,
			Requests:   c,
			Percentage: percentage(c, total),
		})
	}
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].Requests > hours[j].Requests })

	return model.PeakHoursReport{PeakHours: hours, TotalRequests: total}
}

// StatusCodes reports the status-code distribution sorted by frequency.
func (t *Tracker) StatusCodes() model.StatusCodeReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, c := range t.statusCodes {
		total += c
	}

	dist := make([]model.StatusCodeCount, 0, len(t.statusCodes))
	for code, c := range t.statusCodes {
		dist = append(dist, model.StatusCodeCount{
			Code:       code,
			Count:      c,
			Percentage: percentage(c, total),
		})
	}
	sort.Slice(dist, func(i, j int) bool {
		if dist[i].Count != dist[j].Count {
			return dist[i].Count > dist[j].Count
		}
		return dist[i].Code < dist[j].Code
	})

	return model.StatusCodeReport{Distribution: dist, TotalRequests: total}
}

// GeoDistribution reports source-country and attack-type counts sorted by
// frequency.
func (t *Tracker) GeoDistribution() model.GeoDistributionReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, c := range t.geoCounts {
		total += c
	}

	countries := make([]model.CountryCount, 0, len(t.geoCounts))
	for country, c := range t.geoCounts {
		countries = append(countries, model.CountryCount{
			Country:    country,
			Count:      c,
			Percentage: percentage(c, total),
		})
	}
	sort.Slice(countries, func(i, j int) bool {
		if countries[i].Count != countries[j].Count {
			return countries[i].Count > countries[j].Count
		}
		return countries[i].Country < countries[j].Country
	})

	types := make([]model.AttackTypeCount, 0, len(t.attackTypes))
	for attackType, c := range t.attackTypes {
		types = append(types, model.AttackTypeCount{Type: attackType, Count: c})
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i].Count != types[j].Count {
			return types[i].Count > types[j].Count
		}
		return types[i].Type < types[j].Type
	})

	return model.GeoDistributionReport{Countries: countries, AttackTypes: types}
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*100*100) / 100
}
