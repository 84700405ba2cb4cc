package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"threat-intel-service/internal/model"
)

// Threat actor categories assigned by the attribution decision rules.
const (
	ActorStateSponsored = "State-Sponsored APT"
	ActorCriminalOrg    = "Criminal Organization"
	ActorHacktivist     = "Hacktivist Collective"
	ActorScriptKiddies  = "Script Kiddies"
	ActorUnknown        = "Unknown Threat"
)

// geoProfiles is the fixed source-country reputation table; countries not
// listed score 0.40.
var geoProfiles = map[string]float64{
	"Russia":        0.92,
	"China":         0.90,
	"Iran":          0.88,
	"North Korea":   0.91,
	"United States": 0.75,
	"Brazil":        0.80,
	"Romania":       0.82,
}

// attribute assigns a threat actor to a cluster from its distinct attack
// types (signature, first-seen order), primary source country, mean
// inter-event interval in minutes and member count.
//
// The weighted composite of the four sub-scores is retained as a diagnostic
// (WeightedScore); the returned Confidence is always the fixed constant of
// the first matching decision rule.
func attribute(signature []string, country string, avgIntervalMinutes float64, numAttacks int) model.Attribution {
	sigScore := signatureScore(signature)
	geoScore := geographicScore(country)
	timing := timingScore(avgIntervalMinutes, numAttacks)
	opScore := operationalScore(signature, numAttacks)

	weighted := sigScore*0.40 + geoScore*0.25 + timing*0.20 + opScore*0.15
	weighted = math.Min(0.97, weighted)

	var actor string
	var confidence float64
	switch {
	case sigScore >= 0.90 && geoScore >= 0.88 && timing >= 0.75:
		actor, confidence = ActorStateSponsored, 0.92
	case containsType(signature, "Ransomware") && sigScore >= 0.85 && opScore >= 0.65:
		actor, confidence = ActorCriminalOrg, 0.89
	case isExactly(signature, "DDoS") && timing >= 0.70:
		actor, confidence = ActorHacktivist, 0.85
	case sigScore <= 0.65 && opScore <= 0.50:
		actor, confidence = ActorScriptKiddies, 0.78
	default:
		actor, confidence = ActorUnknown, 0.65
	}

	sophistication := "Low"
	if sigScore >= 0.85 {
		sophistication = "High"
	} else if sigScore >= 0.60 {
		sophistication = "Medium"
	}

	return model.Attribution{
		Actor:          actor,
		Confidence:     confidence,
		Sophistication: sophistication,
		WeightedScore:  round2(weighted),
	}
}

// signatureScore is a categorical rule over the distinct attack types
// present, evaluated in priority order; first match wins.
func signatureScore(signature []string) float64 {
	switch {
	case containsType(signature, "DDoS") && containsType(signature, "Malware"):
		return 0.95
	case containsType(signature, "Ransomware") && containsType(signature, "Malware"):
		return 0.90
	case isExactly(signature, "DDoS"):
		return 0.80
	case isExactly(signature, "Brute Force"):
		return 0.60
	default:
		return 0.50
	}
}

func geographicScore(country string) float64 {
	if score, ok := geoProfiles[country]; ok {
		return score
	}
	return 0.40
}

// timingScore rewards tight, regular cadence between member events.
func timingScore(intervalMinutes float64, numAttacks int) float64 {
	if numAttacks < 3 {
		return 0.50
	}
	switch {
	case intervalMinutes < 30:
		return 0.95
	case intervalMinutes < 60:
		return 0.88
	case intervalMinutes < 120:
		return 0.80
	case intervalMinutes < 720:
		return 0.65
	default:
		return 0.45
	}
}

// operationalScore grows with attack-type diversity and campaign size.
func operationalScore(signature []string, numAttacks int) float64 {
	score := 0.50
	if len(signature) >= 3 {
		score += 0.25
	} else if len(signature) >= 2 {
		score += 0.15
	}
	if numAttacks > 15 {
		score += 0.20
	} else if numAttacks > 8 {
		score += 0.12
	}
	return math.Min(1.0, score)
}

// severityScore combines mean intensity with a capped member count:
// min(10, 0.6*mean(intensity) + 0.4*min(n,10)), rounded to 2 decimals.
func severityScore(events []model.AttackEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	intensities := make([]float64, len(events))
	for i, ev := range events {
		intensities[i] = float64(ev.Intensity)
	}
	severity := stat.Mean(intensities, nil)*0.6 + math.Min(float64(len(events)), 10)*0.4
	return round2(math.Min(10, severity))
}

func containsType(signature []string, attackType string) bool {
	for _, t := range signature {
		if t == attackType {
			return true
		}
	}
	return false
}

func isExactly(signature []string, attackType string) bool {
	return len(signature) == 1 && signature[0] == attackType
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
