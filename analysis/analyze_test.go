package analysis

import (
	"testing"

	"github.com/hostsurvey/hostsurvey/model"
)

func bundleWithOneHighConfidenceService() *model.Bundle {
	return &model.Bundle{
		Manifest: model.Manifest{
			CollectionID: "coll-1",
			Services: []model.ServiceInfo{
				{
					Name:        "myapp.service",
					State:       "active",
					MainPID:     model.U32Ptr(100),
					EvidenceRef: model.StrPtr("evidence/1.txt"),
				},
			},
			Processes: []model.ProcessInfo{
				{PID: 100, Command: "/usr/bin/myapp", User: "myapp"},
			},
			Ports: []model.PortInfo{
				{LocalPort: 8080, Protocol: "tcp", PID: model.U32Ptr(100), EvidenceRef: model.StrPtr("evidence/2.txt")},
			},
		},
		Evidence: map[string]*model.Evidence{},
	}
}

func TestRunProducesPackPlanWithClusterKept(t *testing.T) {
	bundle := bundleWithOneHighConfidenceService()

	plan, err := Run(bundle, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(plan.Clusters) != 1 {
		t.Fatalf("len(Clusters) = %d, want 1", len(plan.Clusters))
	}
	if plan.Clusters[0].ID != "app-0" {
		t.Errorf("cluster ID = %q, want app-0", plan.Clusters[0].ID)
	}
	if plan.OverallConfidence <= 0 {
		t.Errorf("OverallConfidence = %v, want > 0", plan.OverallConfidence)
	}
	if plan.SourceBundleID != "coll-1" {
		t.Errorf("SourceBundleID = %q, want coll-1", plan.SourceBundleID)
	}
}

func TestRunDropsLowConfidenceClusterAndWarns(t *testing.T) {
	bundle := bundleWithOneHighConfidenceService()

	plan, err := Run(bundle, Options{MinConfidence: 0.99})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(plan.Clusters) != 0 {
		t.Fatalf("len(Clusters) = %d, want 0 (confidence below threshold)", len(plan.Clusters))
	}
	if len(plan.Warnings) != 1 {
		t.Fatalf("len(Warnings) = %d, want 1", len(plan.Warnings))
	}
	if plan.Warnings[0].Code != "low_confidence_cluster_dropped" {
		t.Errorf("warning code = %q", plan.Warnings[0].Code)
	}
}

func TestRunPrunesDanglingDependsOnAfterDrop(t *testing.T) {
	bundle := bundleWithOneHighConfidenceService()
	bundle.Manifest.Services = append(bundle.Manifest.Services, model.ServiceInfo{
		Name:  "low-confidence.service",
		State: "active",
	})

	plan, err := Run(bundle, Options{MinConfidence: 0.5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	kept := map[string]bool{}
	for _, c := range plan.Clusters {
		kept[c.ID] = true
	}
	for _, c := range plan.Clusters {
		for _, dep := range c.DependsOn {
			if !kept[dep] {
				t.Errorf("cluster %s depends_on dangling id %s", c.ID, dep)
			}
		}
	}
	for _, e := range plan.StartupDAG {
		if !kept[e.From] || !kept[e.To] {
			t.Errorf("dangling startup DAG edge %+v", e)
		}
	}
}

func TestRunEmptyBundleYieldsNoClusters(t *testing.T) {
	bundle := &model.Bundle{Manifest: model.Manifest{CollectionID: "coll-2"}}
	plan, err := Run(bundle, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(plan.Clusters) != 0 {
		t.Errorf("expected no clusters for an empty bundle")
	}
	if plan.SchemaVersion != model.SchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", plan.SchemaVersion, model.SchemaVersion)
	}
}
