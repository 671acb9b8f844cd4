package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/hostsurvey/hostsurvey/model"
)

// CalculateClusterConfidence computes cluster.Confidence as a weighted
// mean of its decisions' confidence values (decisions without evidence
// are weighted at half), then multiplies the result by
// 0.5 + 0.5 * (fraction of decisions that carry evidence).
func CalculateClusterConfidence(cluster *model.AppCluster) {
	if len(cluster.Decisions) == 0 {
		cluster.Confidence = 0
		return
	}

	var totalConfidence, totalWeight float64
	withEvidence := 0
	for _, d := range cluster.Decisions {
		weight := 1.0
		if !d.HasEvidence() {
			weight = 0.5
		} else {
			withEvidence++
		}
		totalConfidence += d.Confidence * weight
		totalWeight += weight
	}

	confidence := 0.0
	if totalWeight > 0 {
		confidence = totalConfidence / totalWeight
	}

	evidenceRatio := float64(withEvidence) / float64(len(cluster.Decisions))
	cluster.Confidence = confidence * (0.5 + evidenceRatio*0.5)
}

// ValidationResult summarizes how well a whole plan's decisions are
// backed by evidence.
type ValidationResult struct {
	OverallConfidence        float64
	DecisionsWithoutEvidence []string
	TotalDecisions           int
	DecisionsWithEvidence    int
}

// ValidatePlanEvidence computes the plain (unweighted) mean confidence
// across every decision in the plan and lists which decisions lack
// evidence references.
func ValidatePlanEvidence(plan *model.PackPlan) ValidationResult {
	var result ValidationResult
	var totalConfidence float64

	for _, cluster := range plan.Clusters {
		for _, d := range cluster.Decisions {
			result.TotalDecisions++
			totalConfidence += d.Confidence
			if !d.HasEvidence() {
				result.DecisionsWithoutEvidence = append(result.DecisionsWithoutEvidence, "["+cluster.ID+"] "+d.Decision)
			} else {
				result.DecisionsWithEvidence++
			}
		}
	}

	if result.TotalDecisions > 0 {
		result.OverallConfidence = totalConfidence / float64(result.TotalDecisions)
	}

	return result
}

// DecisionConfidence is one decision's confidence rendered for a
// confidence report.
type DecisionConfidence struct {
	Decision     string   `json:"decision"`
	Confidence   float64  `json:"confidence"`
	HasEvidence  bool     `json:"has_evidence"`
	EvidenceRefs []string `json:"evidence_refs"`
}

// ConfidenceReport is the per-cluster JSON artifact summarizing why a
// cluster's confidence score is what it is.
type ConfidenceReport struct {
	ClusterID         string                `json:"cluster_id"`
	OverallConfidence float64               `json:"overall_confidence"`
	Decisions         []DecisionConfidence  `json:"decisions"`
	Warnings          []string              `json:"warnings"`
	MissingEvidence   []string              `json:"missing_evidence"`
}

// GenerateConfidenceReport renders cluster's confidence report as
// indented JSON.
func GenerateConfidenceReport(cluster *model.AppCluster) (string, error) {
	var missingEvidence []string
	decisions := make([]DecisionConfidence, 0, len(cluster.Decisions))
	for _, d := range cluster.Decisions {
		hasEvidence := d.HasEvidence()
		if !hasEvidence {
			missingEvidence = append(missingEvidence, d.Decision)
		}
		decisions = append(decisions, DecisionConfidence{
			Decision:     d.Decision,
			Confidence:   d.Confidence,
			HasEvidence:  hasEvidence,
			EvidenceRefs: d.EvidenceRefs,
		})
	}

	var warnings []string
	if len(missingEvidence) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d decisions lack evidence references", len(missingEvidence)))
	}
	if cluster.Confidence < 0.7 {
		warnings = append(warnings, fmt.Sprintf("Low overall confidence (%.2f), manual review recommended", cluster.Confidence))
	}
	if len(cluster.Ports) == 0 && cluster.AppType != "worker" && cluster.AppType != "batch" {
		warnings = append(warnings, "No network ports detected, verify if this is expected")
	}

	report := ConfidenceReport{
		ClusterID:         cluster.ID,
		OverallConfidence: cluster.Confidence,
		Decisions:         decisions,
		Warnings:          warnings,
		MissingEvidence:   missingEvidence,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
