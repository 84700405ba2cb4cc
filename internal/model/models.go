package model

// AttackEvent is one reported attack occurrence. Events are immutable once
// created; the timestamp is an RFC3339 UTC instant kept in wire form so the
// record round-trips through JSON unchanged.
type AttackEvent struct {
	ID            string  `json:"id"`
	AttackType    string  `json:"attack_type"`
	SourceCountry string  `json:"source_country"`
	TargetCountry string  `json:"target_country"`
	SourceIP      string  `json:"source_ip"`
	SourceLat     float64 `json:"source_lat"`
	SourceLng     float64 `json:"source_lng"`
	TargetLat     float64 `json:"target_lat"`
	TargetLng     float64 `json:"target_lng"`
	Intensity     int     `json:"intensity"`
	Timestamp     string  `json:"timestamp"`
	StatusCode    int     `json:"status_code"`
	IsBot         bool    `json:"is_bot"`
}

// Campaign is a frozen summary of a detected attack campaign. Records are
// never mutated after registration; a later detection run may produce a new
// campaign with overlapping membership under a fresh id.
type Campaign struct {
	CampaignID           string         `json:"campaign_id"`
	StartTime            string         `json:"start_time"`
	EndTime              string         `json:"end_time"`
	DurationMinutes      float64        `json:"duration_minutes"`
	NumAttacks           int            `json:"num_attacks"`
	AttackIDs            []string       `json:"attack_ids"`
	PrimarySourceCountry string         `json:"primary_source_country"`
	AttackTypes          map[string]int `json:"attack_types"`
	Signature            []string       `json:"signature"`
	AvgIntervalMinutes   float64        `json:"avg_interval_minutes"`
	AttributedActor      string         `json:"attributed_actor"`
	Confidence           float64        `json:"confidence"`
	Sophistication       string         `json:"sophistication"`
	SeverityScore        float64        `json:"severity_score"`
}

// Attribution is the actor assignment for one campaign. Confidence is always
// one of the fixed per-rule constants; WeightedScore is the composite of the
// four sub-scores and is diagnostic only, never serialized.
type Attribution struct {
	Actor          string  `json:"actor"`
	Confidence     float64 `json:"confidence"`
	Sophistication string  `json:"sophistication"`
	WeightedScore  float64 `json:"-"`
}

// BotDetail describes one flagged source IP.
type BotDetail struct {
	IP            string `json:"ip"`
	TotalRequests int    `json:"total_requests"`
	PathsVisited  int    `json:"paths_visited"`
}

// BotReport is the payload of /api/analytics/bots.
type BotReport struct {
	TotalBots     int         `json:"total_bots"`
	Bots          []BotDetail `json:"bots"`
	BotPercentage float64     `json:"bot_percentage"`
}

type PeakHour struct {
	Hour       int     `json:"hour"`
	Requests   int     `json:"requests"`
	Percentage float64 `json:"percentage"`
}

type PeakHoursReport struct {
	PeakHours     []PeakHour `json:"peak_hours"`
	TotalRequests int        `json:"total_requests"`
}

type StatusCodeCount struct {
	Code       int     `json:"code"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type StatusCodeReport struct {
	Distribution  []StatusCodeCount `json:"distribution"`
	TotalRequests int               `json:"total_requests"`
}

type CountryCount struct {
	Country    string  `json:"country"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type AttackTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type GeoDistributionReport struct {
	Countries   []CountryCount    `json:"countries"`
	AttackTypes []AttackTypeCount `json:"attack_types"`
}

// HealthStatus is the payload of /health.
type HealthStatus struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	ActiveConnections int    `json:"active_connections"`
	TotalAttacks      int    `json:"total_attacks"`
	DetectedBots      int    `json:"detected_bots"`
	CampaignsDetected int    `json:"campaigns_detected"`
}
