package patient

import (
	"strings"
	"time"
)

// Severity tiers for the medical-alert banner, ordered from none upward.
// Pregnancy is its own tier shown when pregnancy is the only condition.
type Severity string

const (
	SeverityNone      Severity = "none"
	SeverityLow       Severity = "low"
	SeverityMedium    Severity = "medium"
	SeverityHigh      Severity = "high"
	SeverityCritical  Severity = "critical"
	SeverityPregnancy Severity = "pregnancy"
)

// Classification is the result of classifying a patient's medical fields.
type Classification struct {
	Tier       Severity `json:"tier"`
	Score      int      `json:"score"`
	Conditions []string `json:"conditions,omitempty"`
	Color      string   `json:"color"`
}

// lifeThreateningKeywords short-circuit straight to critical.
var lifeThreateningKeywords = []string{
	"cancer", "cáncer", "tumor", "infarto", "derrame",
	"corazón", "corazon", "cardíaco", "cardiaco",
}

// criticalKeywords add 3 points without short-circuiting.
var criticalKeywords = []string{
	"diabetes", "hipertensión", "hipertension", "hepatitis",
	"vih", "sida", "epilepsia", "insuficiencia renal", "hemofilia",
}

// severeAllergyKeywords add 2 points.
var severeAllergyKeywords = []string{
	"penicilina", "anestesia", "látex", "latex", "aspirina", "sulfas",
}

var severityColors = map[Severity]string{
	SeverityNone:      "gray",
	SeverityLow:       "blue",
	SeverityMedium:    "yellow",
	SeverityHigh:      "orange",
	SeverityCritical:  "red",
	SeverityPregnancy: "purple",
}

// Classify computes the medical-alert tier for a patient. It is total:
// missing fields contribute nothing and every input maps to exactly one tier.
func Classify(p *Patient, now time.Time) Classification {
	score := 0
	var conditions []string

	diseases := lowerOrEmpty(p.Diseases)
	allergies := lowerOrEmpty(p.Allergies)
	medications := strings.TrimSpace(valueOrEmpty(p.Medications))

	if containsAny(diseases, lifeThreateningKeywords) {
		return Classification{
			Tier:       SeverityCritical,
			Conditions: []string{"enfermedad de riesgo vital"},
			Color:      severityColors[SeverityCritical],
		}
	}

	// Highest age bracket wins.
	switch age := p.Age(now); {
	case age >= 80:
		score += 3
		conditions = append(conditions, "edad avanzada")
	case age >= 60:
		score += 2
		conditions = append(conditions, "adulto mayor")
	case age >= 0 && age < 18:
		score += 1
		conditions = append(conditions, "menor de edad")
	}

	medicalScore := 0
	if containsAny(diseases, criticalKeywords) {
		medicalScore += 3
		conditions = append(conditions, "enfermedad crítica")
	}
	if containsAny(allergies, severeAllergyKeywords) {
		medicalScore += 2
		conditions = append(conditions, "alergia severa")
	}
	if n := countMedications(medications); n >= 3 {
		medicalScore += 2
		conditions = append(conditions, "polimedicado")
	} else if n >= 2 {
		medicalScore += 1
		conditions = append(conditions, "múltiples medicamentos")
	}
	score += medicalScore

	pregnant := p.Pregnant && isFemale(p.Sex)
	if pregnant {
		score += 3
		conditions = append(conditions, "embarazo")
	}

	// Pregnancy with no disease, allergy, or medication contribution
	// overrides the numeric thresholds.
	if pregnant && medicalScore == 0 {
		return Classification{
			Tier:       SeverityPregnancy,
			Score:      score,
			Conditions: conditions,
			Color:      severityColors[SeverityPregnancy],
		}
	}

	tier := SeverityNone
	switch {
	case score >= 6:
		tier = SeverityCritical
	case score >= 4:
		tier = SeverityHigh
	case score >= 2:
		tier = SeverityMedium
	case score >= 1:
		tier = SeverityLow
	}

	return Classification{
		Tier:       tier,
		Score:      score,
		Conditions: conditions,
		Color:      severityColors[tier],
	}
}

// isFemale accepts the values seen in intake forms and imported records.
func isFemale(sex string) bool {
	switch strings.ToLower(strings.TrimSpace(sex)) {
	case "femenino", "female", "f", "mujer":
		return true
	}
	return false
}

func lowerOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(*s)
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func containsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// countMedications counts non-empty comma-separated entries.
func countMedications(text string) int {
	if text == "" {
		return 0
	}
	count := 0
	for _, part := range strings.Split(text, ",") {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}
