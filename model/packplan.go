package model

import "time"

// PackPlan is the output of analysis: discovered application clusters,
// their dependencies, a startup DAG, generated artifact metadata, and
// an overall confidence score.
type PackPlan struct {
	SchemaVersion        string             `json:"schema_version"`
	GeneratedAt          time.Time          `json:"generated_at"`
	SourceBundleID       string             `json:"source_bundle_id"`
	Clusters             []AppCluster       `json:"clusters"`
	ExternalDependencies []DependencyInfo   `json:"external_dependencies"`
	StartupDAG           []DagEdge          `json:"startup_dag"`
	Artifacts            []GeneratedArtifact `json:"artifacts"`
	OverallConfidence    float64            `json:"overall_confidence"`
	Warnings             []AnalysisWarning  `json:"warnings"`
}

// NewPackPlan returns an empty plan stamped with the current schema
// version and generation time.
func NewPackPlan(sourceBundleID string, now time.Time) PackPlan {
	return PackPlan{
		SchemaVersion:  SchemaVersion,
		GeneratedAt:    now,
		SourceBundleID: sourceBundleID,
	}
}

// AppCluster is a logical grouping of related processes/services judged
// to belong to one application.
type AppCluster struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    *string           `json:"description,omitempty"`
	AppType        string            `json:"app_type"`
	Processes      []ClusterProcess  `json:"processes"`
	Services       []ClusterService  `json:"services"`
	Ports          []ClusterPort     `json:"ports"`
	EnvVars        []EnvVarSpec      `json:"env_vars"`
	ConfigFiles    []ConfigFileSpec  `json:"config_files"`
	LogPaths       []string          `json:"log_paths"`
	DependsOn      []string          `json:"depends_on"`
	ExternalDeps   []string          `json:"external_deps"`
	Readiness      *ReadinessCheck   `json:"readiness,omitempty"`
	Confidence     float64           `json:"confidence"`
	EvidenceRefs   []string          `json:"evidence_refs"`
	Decisions      []Decision        `json:"decisions"`
}

type ClusterProcess struct {
	PID              uint32  `json:"pid"`
	Command          string  `json:"command"`
	Args             []string `json:"args"`
	User             string  `json:"user"`
	WorkingDirectory *string `json:"working_directory,omitempty"`
	EvidenceRef      *string `json:"evidence_ref,omitempty"`
}

type ClusterService struct {
	Name             string            `json:"name"`
	ExecStart        *string           `json:"exec_start,omitempty"`
	User             *string           `json:"user,omitempty"`
	WorkingDirectory *string           `json:"working_directory,omitempty"`
	Environment      map[string]string `json:"environment"`
	EnvironmentFiles []string          `json:"environment_files"`
	EvidenceRef      *string           `json:"evidence_ref,omitempty"`
}

type ClusterPort struct {
	Port        uint16  `json:"port"`
	Protocol    string  `json:"protocol"`
	Purpose     *string `json:"purpose,omitempty"`
	EvidenceRef *string `json:"evidence_ref,omitempty"`
}

type EnvVarSpec struct {
	Name         string  `json:"name"`
	Required     bool    `json:"required"`
	DefaultValue *string `json:"default_value,omitempty"`
	Description  *string `json:"description,omitempty"`
	Sensitive    bool    `json:"sensitive"`
	EvidenceRef  *string `json:"evidence_ref,omitempty"`
}

type ConfigFileSpec struct {
	SourcePath    string   `json:"source_path"`
	ContainerPath string   `json:"container_path"`
	Templated     bool     `json:"templated"`
	TemplateVars  []string `json:"template_vars"`
	EvidenceRef   *string  `json:"evidence_ref,omitempty"`
}

type ReadinessCheck struct {
	CheckType       string  `json:"check_type"`
	Target          *string `json:"target,omitempty"`
	Port            *uint16 `json:"port,omitempty"`
	Path            *string `json:"path,omitempty"`
	Command         *string `json:"command,omitempty"`
	TimeoutSeconds  uint32  `json:"timeout_seconds"`
	IntervalSeconds uint32  `json:"interval_seconds"`
	Retries         uint32  `json:"retries"`
}

type DependencyInfo struct {
	ID           string   `json:"id"`
	DepType      string   `json:"dep_type"`
	Endpoint     string   `json:"endpoint"`
	Port         *uint16  `json:"port,omitempty"`
	UsedBy       []string `json:"used_by"`
	EvidenceRefs []string `json:"evidence_refs"`
}

type DagEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type ArtifactType string

const (
	ArtifactDockerfile       ArtifactType = "dockerfile"
	ArtifactEntrypoint       ArtifactType = "entrypoint"
	ArtifactConfigTemplate   ArtifactType = "config_template"
	ArtifactComposeFile      ArtifactType = "compose_file"
	ArtifactReadme           ArtifactType = "readme"
	ArtifactConfidenceReport ArtifactType = "confidence_report"
)

type GeneratedArtifact struct {
	ClusterID    string       `json:"cluster_id"`
	ArtifactType ArtifactType `json:"artifact_type"`
	Path         string       `json:"path"`
	Description  *string      `json:"description,omitempty"`
}

// Decision records one inference made during analysis: what was
// concluded, why, and which evidence backs it. In strict mode,
// evidence_refs must be non-empty.
type Decision struct {
	Decision     string   `json:"decision"`
	Reason       string   `json:"reason"`
	EvidenceRefs []string `json:"evidence_refs"`
	Confidence   float64  `json:"confidence"`
}

// NewDecision builds a Decision.
func NewDecision(decision, reason string, evidenceRefs []string, confidence float64) Decision {
	return Decision{Decision: decision, Reason: reason, EvidenceRefs: evidenceRefs, Confidence: confidence}
}

// HasEvidence reports whether this decision cites at least one evidence
// reference.
func (d Decision) HasEvidence() bool { return len(d.EvidenceRefs) > 0 }

type AnalysisWarning struct {
	Code             string   `json:"code"`
	Message          string   `json:"message"`
	Severity         string   `json:"severity"`
	AffectedClusters []string `json:"affected_clusters"`
}
