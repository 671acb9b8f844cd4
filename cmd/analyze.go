package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hostsurvey/hostsurvey/analysis"
	"github.com/hostsurvey/hostsurvey/artifacts"
	"github.com/hostsurvey/hostsurvey/bundlefile"
	"github.com/hostsurvey/hostsurvey/config"
	"github.com/hostsurvey/hostsurvey/history"
	"github.com/hostsurvey/hostsurvey/model"
)

type analyzeFlags struct {
	bundle        string
	out           string
	clusterPrefix string
	minConfidence float64
	historyDB     string
	historyDSN    string
}

var analyzeFlagsV analyzeFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a collected bundle into an application pack plan",
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlagsV.bundle, "bundle", "", "path to the collected bundle (required)")
	f.StringVar(&analyzeFlagsV.out, "out", "", "output directory (required)")
	f.StringVar(&analyzeFlagsV.clusterPrefix, "cluster-prefix", "app", "prefix for generated cluster ids")
	f.Float64Var(&analyzeFlagsV.minConfidence, "min-confidence", 0.7, "drop clusters scoring below this confidence")
	f.StringVar(&analyzeFlagsV.historyDB, "history-db", "", "sqlite history database path (default ~/.hostsurvey/history.db)")
	f.StringVar(&analyzeFlagsV.historyDSN, "history-dsn", "", "postgres DSN for a shared history database")
	_ = analyzeCmd.MarkFlagRequired("bundle")
	_ = analyzeCmd.MarkFlagRequired("out")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	flags := analyzeFlagsV
	logger, err := buildLogger(logLevel)
	if err != nil {
		return ExitCodeError{Code: 2}
	}
	defer logger.Sync()

	bundle, err := bundlefile.Read(flags.bundle)
	if err != nil {
		logger.Error("reading bundle", zap.Error(err))
		return ExitCodeError{Code: 1}
	}

	plan, err := analysis.Run(bundle, analysis.Options{
		ClusterPrefix: flags.clusterPrefix,
		MinConfidence: flags.minConfidence,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("analysis failed", zap.Error(err))
		return ExitCodeError{Code: 1}
	}

	if err := writePlanArtifacts(plan, flags.out); err != nil {
		logger.Error("writing artifacts", zap.Error(err))
		return ExitCodeError{Code: 1}
	}

	recordHistory(cmd.Context(), flags, bundle, plan, logger)

	logger.Info("analysis complete",
		zap.Int("clusters", len(plan.Clusters)),
		zap.Float64("overall_confidence", plan.OverallConfidence),
		zap.Int("warnings", len(plan.Warnings)))
	return nil
}

func writePlanArtifacts(plan *model.PackPlan, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	for i := range plan.Clusters {
		cluster := &plan.Clusters[i]
		clusterDir := filepath.Join(outDir, cluster.ID)
		if err := os.MkdirAll(clusterDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", clusterDir, err)
		}

		if err := writeArtifact(clusterDir, "Dockerfile", artifacts.GenerateDockerfile(cluster)); err != nil {
			return err
		}
		if err := writeArtifact(clusterDir, "entrypoint.sh", artifacts.GenerateEntrypoint(cluster)); err != nil {
			return err
		}
		if err := writeArtifact(clusterDir, "README.md", artifacts.GenerateReadme(cluster)); err != nil {
			return err
		}
		for _, cfg := range cluster.ConfigFiles {
			if !cfg.Templated {
				continue
			}
			name := filepath.Base(cfg.SourcePath) + ".tmpl"
			if err := writeArtifact(clusterDir, name, artifacts.GenerateConfigTemplate(cfg)); err != nil {
				return err
			}
		}

		report, err := analysis.GenerateConfidenceReport(cluster)
		if err != nil {
			return fmt.Errorf("generating confidence report for %s: %w", cluster.ID, err)
		}
		if err := writeArtifact(clusterDir, "confidence.json", report); err != nil {
			return err
		}

		plan.Artifacts = append(plan.Artifacts,
			model.GeneratedArtifact{ClusterID: cluster.ID, ArtifactType: model.ArtifactDockerfile, Path: filepath.Join(cluster.ID, "Dockerfile")},
			model.GeneratedArtifact{ClusterID: cluster.ID, ArtifactType: model.ArtifactEntrypoint, Path: filepath.Join(cluster.ID, "entrypoint.sh")},
			model.GeneratedArtifact{ClusterID: cluster.ID, ArtifactType: model.ArtifactReadme, Path: filepath.Join(cluster.ID, "README.md")},
			model.GeneratedArtifact{ClusterID: cluster.ID, ArtifactType: model.ArtifactConfidenceReport, Path: filepath.Join(cluster.ID, "confidence.json")},
		)
	}

	composePath := "docker-compose.yaml"
	if err := writeArtifact(outDir, composePath, artifacts.GenerateCompose(plan)); err != nil {
		return err
	}
	plan.Artifacts = append(plan.Artifacts, model.GeneratedArtifact{ArtifactType: model.ArtifactComposeFile, Path: composePath})

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling packplan.json: %w", err)
	}
	return os.WriteFile(filepath.Join(outDir, "packplan.json"), data, 0o644)
}

func writeArtifact(dir, name, content string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// recordHistory persists a summary of this run to the configured
// history store. It is best-effort: a failure here is logged as a
// warning and never fails the analyze command.
func recordHistory(ctx context.Context, flags analyzeFlags, bundle *model.Bundle, plan *model.PackPlan, logger *zap.Logger) {
	store, err := openHistoryStore(ctx, flags)
	if err != nil {
		logger.Warn("history store unavailable, skipping", zap.Error(err))
		return
	}
	defer store.Close()

	rec := history.HistoryRecord{
		Host:              bundle.Manifest.System.Hostname,
		CollectionID:      bundle.Manifest.CollectionID,
		CollectedAt:       bundle.Manifest.CollectedAt,
		ClusterCount:      len(plan.Clusters),
		OverallConfidence: plan.OverallConfidence,
		WarningCount:      len(plan.Warnings),
		SchemaVersion:     plan.SchemaVersion,
	}
	if err := store.Record(ctx, rec); err != nil {
		logger.Warn("recording history failed", zap.Error(err))
	}
}

func openHistoryStore(ctx context.Context, flags analyzeFlags) (history.Store, error) {
	if flags.historyDSN != "" {
		return history.OpenPostgres(ctx, flags.historyDSN)
	}
	path := flags.historyDB
	if path == "" {
		path = config.DefaultHistoryDBPath()
	}
	return history.OpenSQLite(path)
}
