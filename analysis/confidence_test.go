package analysis

import (
	"strings"
	"testing"

	"github.com/hostsurvey/hostsurvey/model"
)

func TestCalculateClusterConfidenceWeightsMissingEvidenceLower(t *testing.T) {
	cluster := &model.AppCluster{
		Decisions: []model.Decision{
			model.NewDecision("a", "r", []string{"evidence/1.txt"}, 0.9),
			model.NewDecision("b", "r", nil, 0.9),
		},
	}
	CalculateClusterConfidence(cluster)

	fullyEvidenced := &model.AppCluster{
		Decisions: []model.Decision{
			model.NewDecision("a", "r", []string{"evidence/1.txt"}, 0.9),
			model.NewDecision("b", "r", []string{"evidence/2.txt"}, 0.9),
		},
	}
	CalculateClusterConfidence(fullyEvidenced)

	if cluster.Confidence >= fullyEvidenced.Confidence {
		t.Errorf("partial-evidence confidence %.3f should be lower than full-evidence confidence %.3f",
			cluster.Confidence, fullyEvidenced.Confidence)
	}
}

func TestCalculateClusterConfidenceEmptyDecisions(t *testing.T) {
	cluster := &model.AppCluster{}
	CalculateClusterConfidence(cluster)
	if cluster.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 for no decisions", cluster.Confidence)
	}
}

func TestValidatePlanEvidenceCountsMissingEvidence(t *testing.T) {
	plan := &model.PackPlan{
		Clusters: []model.AppCluster{
			{
				ID: "app-0",
				Decisions: []model.Decision{
					model.NewDecision("a", "r", []string{"evidence/1.txt"}, 0.9),
					model.NewDecision("b", "r", nil, 0.4),
				},
			},
		},
	}

	result := ValidatePlanEvidence(plan)
	if result.TotalDecisions != 2 {
		t.Errorf("TotalDecisions = %d, want 2", result.TotalDecisions)
	}
	if result.DecisionsWithEvidence != 1 {
		t.Errorf("DecisionsWithEvidence = %d, want 1", result.DecisionsWithEvidence)
	}
	if len(result.DecisionsWithoutEvidence) != 1 {
		t.Errorf("len(DecisionsWithoutEvidence) = %d, want 1", len(result.DecisionsWithoutEvidence))
	}
}

func TestGenerateConfidenceReportIncludesWarnings(t *testing.T) {
	cluster := &model.AppCluster{
		ID:         "app-0",
		AppType:    "api",
		Confidence: 0.3,
		Decisions: []model.Decision{
			model.NewDecision("Include service foo", "reason", nil, 0.3),
		},
	}

	report, err := GenerateConfidenceReport(cluster)
	if err != nil {
		t.Fatalf("GenerateConfidenceReport: %v", err)
	}
	if !strings.Contains(report, "lack evidence") {
		t.Errorf("expected missing-evidence warning in report, got %s", report)
	}
	if !strings.Contains(report, "manual review recommended") {
		t.Errorf("expected low-confidence warning in report, got %s", report)
	}
	if !strings.Contains(report, "No network ports detected") {
		t.Errorf("expected no-ports warning in report, got %s", report)
	}
}
