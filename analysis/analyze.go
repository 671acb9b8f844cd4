package analysis

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostsurvey/hostsurvey/model"
)

// Options configures one Run of the clustering/dependency/confidence
// pipeline over a collected bundle.
type Options struct {
	ClusterPrefix string
	MinConfidence float64
	Logger        *zap.Logger
}

// Run turns a collected Bundle into a PackPlan: scores every process
// and service, groups them into application clusters, links clusters
// to each other and to external dependencies, orders clusters into a
// startup DAG, and scores each cluster's confidence. Clusters below
// MinConfidence are dropped and recorded as a top-level warning rather
// than silently discarded.
func Run(bundle *model.Bundle, opts Options) (*model.PackPlan, error) {
	if opts.ClusterPrefix == "" {
		opts.ClusterPrefix = "app"
	}

	plan := model.NewPackPlan(bundle.Manifest.CollectionID, time.Now().UTC())

	procScores := ScoreProcesses(&bundle.Manifest)
	clusters := ClusterApplications(bundle, procScores, opts.ClusterPrefix)

	deps := DetectDependencies(bundle, clusters)
	dag := BuildStartupDAG(clusters, opts.Logger)

	var kept []model.AppCluster
	var warnings []model.AnalysisWarning
	var confidenceSum float64
	droppedIDs := map[string]bool{}
	for i := range clusters {
		CalculateClusterConfidence(&clusters[i])
		if clusters[i].Confidence < opts.MinConfidence {
			droppedIDs[clusters[i].ID] = true
			warnings = append(warnings, model.AnalysisWarning{
				Code:             "low_confidence_cluster_dropped",
				Message:          fmt.Sprintf("cluster %s (%s) scored %.2f, below the %.2f threshold and was dropped", clusters[i].ID, clusters[i].Name, clusters[i].Confidence, opts.MinConfidence),
				Severity:         "warning",
				AffectedClusters: []string{clusters[i].ID},
			})
			continue
		}
		kept = append(kept, clusters[i])
		confidenceSum += clusters[i].Confidence
	}

	// Dropping a cluster invalidates any edge, dependency, or depends_on
	// reference that pointed at it, so those references are pruned
	// alongside it rather than left dangling in the emitted plan.
	for i := range kept {
		kept[i].DependsOn = filterIDs(kept[i].DependsOn, droppedIDs)
	}
	plan.StartupDAG = filterDAGEdges(dag, droppedIDs)
	plan.ExternalDependencies = filterDependencies(deps, droppedIDs)
	plan.Clusters = kept
	plan.Warnings = warnings

	if len(kept) > 0 {
		plan.OverallConfidence = confidenceSum / float64(len(kept))
	}

	return &plan, nil
}

func filterIDs(ids []string, dropped map[string]bool) []string {
	var out []string
	for _, id := range ids {
		if !dropped[id] {
			out = append(out, id)
		}
	}
	return out
}

func filterDAGEdges(edges []model.DagEdge, dropped map[string]bool) []model.DagEdge {
	var out []model.DagEdge
	for _, e := range edges {
		if dropped[e.From] || dropped[e.To] {
			continue
		}
		out = append(out, e)
	}
	return out
}

func filterDependencies(deps []model.DependencyInfo, dropped map[string]bool) []model.DependencyInfo {
	var out []model.DependencyInfo
	for _, d := range deps {
		var usedBy []string
		for _, id := range d.UsedBy {
			if !dropped[id] {
				usedBy = append(usedBy, id)
			}
		}
		if len(usedBy) == 0 {
			continue
		}
		d.UsedBy = usedBy
		out = append(out, d)
	}
	return out
}
