package agents

import (
	"context"
	"reflect"
	"testing"

	"github.com/comatrix-1/interviewready/internal/model"
)

func resumeWithBullets(bullets ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"experience": []interface{}{
			map[string]interface{}{"company": "Acme", "bullets": bullets},
		},
	}
}

func TestAuditThresholds(t *testing.T) {
	quantified := resumeWithBullets("Reduced build time by 35%.")
	tests := []struct {
		name    string
		resume  map[string]interface{}
		section map[string]interface{}
		status  string
		flags   []interface{}
	}{
		{"clean", quantified, map[string]interface{}{"hallucinationRisk": 0.1, "confidence": 0.9}, GovernancePassed, []interface{}{}},
		{"risk just below", quantified, map[string]interface{}{"hallucinationRisk": 0.69}, GovernancePassed, []interface{}{}},
		{"risk at threshold", quantified, map[string]interface{}{"hallucinationRisk": 0.7}, GovernanceFlagged, []interface{}{FlagHallucinationRisk}},
		{"confidence at threshold", quantified, map[string]interface{}{"confidence": 0.3}, GovernancePassed, []interface{}{}},
		{"confidence below", quantified, map[string]interface{}{"confidence": 0.29}, GovernanceFlagged, []interface{}{FlagLowConfidence}},
		{"missing scores", quantified, map[string]interface{}{}, GovernancePassed, []interface{}{}},
		{"no measurable bullets", resumeWithBullets("Owned the billing service."), map[string]interface{}{}, GovernanceFlagged, []interface{}{FlagUnquantifiedImpact}},
		{"no bullets", map[string]interface{}{}, map[string]interface{}{}, GovernancePassed, []interface{}{}},
		{
			"every flag",
			resumeWithBullets("Owned the billing service."),
			map[string]interface{}{"hallucinationRisk": 0.95, "confidence": 0.1},
			GovernanceFlagged,
			[]interface{}{FlagHallucinationRisk, FlagLowConfidence, FlagUnquantifiedImpact},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := audit(tt.resume, tt.section)
			if got["status"] != tt.status || !reflect.DeepEqual(got["flags"], tt.flags) {
				t.Fatalf("got %v %v, want %v %v", got["status"], got["flags"], tt.status, tt.flags)
			}
		})
	}
}

func TestContainsQuantifiableClaim(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Cut p99 latency by 40%", true},
		{"Managed a $2M budget", true},
		{"Mentored 4 engineers", true},
		{"Served 12 clients across EMEA", true},
		{"Improved throughput to 3x the baseline", true},
		{"Led migration of batch jobs", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ContainsQuantifiableClaim(tt.text); got != tt.want {
			t.Errorf("ContainsQuantifiableClaim(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestContentStrengthWritesGovernance(t *testing.T) {
	stub := newStub(t)
	stub.answers["content_analysis"] = `{"strengths":[],"gaps":[],"quantifiedImpactScore":0.2,"hallucinationRisk":0.8}`
	content, _ := NewContentStrength(stub, Options{})

	out, err := content.Execute(context.Background(), fixtureDoc(KeyResume))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var doc model.Document
	if err := model.Decode(out, &doc); err != nil {
		t.Fatal(err)
	}
	g := doc.Governance
	if g == nil || g.Status != GovernanceFlagged || !reflect.DeepEqual(g.Flags, []string{FlagHallucinationRisk}) {
		t.Fatalf("unexpected governance %+v", g)
	}
	if g.QuantifiedClaims != 1 || doc.ContentAnalysis.Confidence != 1 {
		t.Fatalf("unexpected claims %d or confidence %v", g.QuantifiedClaims, doc.ContentAnalysis.Confidence)
	}
}
