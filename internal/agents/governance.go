package agents

import (
	"regexp"
)

// Audit thresholds on the content analysis.
const (
	HallucinationRiskThreshold = 0.7
	ConfidenceThreshold        = 0.3
)

const (
	GovernancePassed  = "passed"
	GovernanceFlagged = "flagged"

	FlagHallucinationRisk  = "hallucination_risk"
	FlagLowConfidence      = "low_confidence"
	FlagUnquantifiedImpact = "unquantified_impact"
)

var quantifiable = []*regexp.Regexp{
	regexp.MustCompile(`\d+\s*%`),
	regexp.MustCompile(`\$\s*\d+`),
	regexp.MustCompile(`(?i)\d+\s*(years?|months?|weeks?)\b`),
	regexp.MustCompile(`(?i)\d+\s*(people|team members|engineers|employees)\b`),
	regexp.MustCompile(`(?i)\d+\s*(projects?|clients?|customers?|users?)\b`),
	regexp.MustCompile(`(?i)\b(increased?|reduced?|cut|grew|saved|improved)\b.*\d`),
	regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*x\b`),
}

// ContainsQuantifiableClaim reports whether text states a measurable result.
func ContainsQuantifiableClaim(text string) bool {
	for _, re := range quantifiable {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// audit judges a content analysis section against the resume it describes.
// Missing scores count as harmless: risk 0, confidence 1. A resume without
// bullets is not flagged for unquantified impact.
func audit(resume, section map[string]interface{}) map[string]interface{} {
	risk := number(section["hallucinationRisk"], 0)
	confidence := number(section["confidence"], 1)

	flags := []interface{}{}
	if risk >= HallucinationRiskThreshold {
		flags = append(flags, FlagHallucinationRisk)
	}
	if confidence < ConfidenceThreshold {
		flags = append(flags, FlagLowConfidence)
	}

	bullets, claims := 0, 0
	if exp, ok := resume["experience"].([]interface{}); ok {
		for _, e := range exp {
			item, _ := e.(map[string]interface{})
			list, _ := item["bullets"].([]interface{})
			for _, b := range list {
				s, ok := b.(string)
				if !ok {
					continue
				}
				bullets++
				if ContainsQuantifiableClaim(s) {
					claims++
				}
			}
		}
	}
	if bullets > 0 && claims == 0 {
		flags = append(flags, FlagUnquantifiedImpact)
	}

	status := GovernancePassed
	if len(flags) > 0 {
		status = GovernanceFlagged
	}
	return map[string]interface{}{"status": status, "flags": flags, "quantifiedClaims": claims}
}

func number(v interface{}, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return fallback
}
