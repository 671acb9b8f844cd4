// Package model holds the wire types shared by collection (Bundle,
// Manifest, Evidence, AuditLog) and analysis (PackPlan, AppCluster).
package model

import "time"

const SchemaVersion = "1.0.0"

// Bundle is the complete in-memory collection result: manifest, audit
// trail, evidence blobs and their checksums.
type Bundle struct {
	Manifest  Manifest             `json:"manifest"`
	Audit     []AuditEntry         `json:"audit"`
	Evidence  map[string]*Evidence `json:"evidence"`
	Checksums map[string]string    `json:"checksums"`
}

// Manifest is manifest.json: every fact gathered about the target host.
type Manifest struct {
	SchemaVersion     string            `json:"schema_version"`
	CollectionID      string            `json:"collection_id"`
	CollectedAt       time.Time         `json:"collected_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	System            SystemInfo        `json:"system"`
	Processes         []ProcessInfo     `json:"processes"`
	Services          []ServiceInfo     `json:"services"`
	Ports             []PortInfo        `json:"ports"`
	Connections       []NetworkConn     `json:"connections"`
	Packages          []Package         `json:"packages"`
	ScheduledTasks    []ScheduledTask   `json:"scheduled_tasks"`
	ConfigFiles       []FileInfo        `json:"config_files"`
	LogFiles          []FileInfo        `json:"log_files"`
	EnvironmentFiles  []EnvironmentFile `json:"environment_files"`
	CollectionMode    string            `json:"collection_mode"`
	Errors            []CollectionError `json:"errors"`
}

// NewManifest returns a Manifest with defaults matching the reference
// implementation: fresh schema version, generated collection id, and
// collected_at stamped to now.
func NewManifest(collectionID string, now time.Time) Manifest {
	return Manifest{
		SchemaVersion:  SchemaVersion,
		CollectionID:   collectionID,
		CollectedAt:    now,
		CollectionMode: "unknown",
	}
}

type SystemInfo struct {
	Hostname       string  `json:"hostname"`
	OsType         string  `json:"os_type"`
	OsVersion      *string `json:"os_version,omitempty"`
	KernelVersion  *string `json:"kernel_version,omitempty"`
	Architecture   *string `json:"architecture,omitempty"`
	UptimeSeconds  *uint64 `json:"uptime_seconds,omitempty"`
	Timezone       *string `json:"timezone,omitempty"`
}

type ProcessInfo struct {
	PID              uint32            `json:"pid"`
	PPID             uint32            `json:"ppid"`
	User             string            `json:"user"`
	Command          string            `json:"command"`
	Args             []string          `json:"args"`
	FullCmdline      string            `json:"full_cmdline"`
	StartTime        *time.Time        `json:"start_time,omitempty"`
	ElapsedTime      *string           `json:"elapsed_time,omitempty"`
	CPUPercent       *float32          `json:"cpu_percent,omitempty"`
	MemoryPercent    *float32          `json:"memory_percent,omitempty"`
	WorkingDirectory *string           `json:"working_directory,omitempty"`
	Environment      map[string]string `json:"environment,omitempty"`
	EvidenceRef      *string           `json:"evidence_ref,omitempty"`
}

type ServiceInfo struct {
	Name              string            `json:"name"`
	DisplayName       *string           `json:"display_name,omitempty"`
	Description       *string           `json:"description,omitempty"`
	State             string            `json:"state"`
	SubState          *string           `json:"sub_state,omitempty"`
	StartMode         *string           `json:"start_mode,omitempty"`
	ExecStart         *string           `json:"exec_start,omitempty"`
	ExecStartPre      []string          `json:"exec_start_pre"`
	ExecStartPost     []string          `json:"exec_start_post"`
	ExecStop          *string           `json:"exec_stop,omitempty"`
	WorkingDirectory  *string           `json:"working_directory,omitempty"`
	User              *string           `json:"user,omitempty"`
	Group             *string           `json:"group,omitempty"`
	Environment       map[string]string `json:"environment"`
	EnvironmentFiles  []string          `json:"environment_files"`
	UnitFilePath      *string           `json:"unit_file_path,omitempty"`
	Dependencies      []string          `json:"dependencies"`
	WantedBy          []string          `json:"wanted_by"`
	MainPID           *uint32           `json:"main_pid,omitempty"`
	EvidenceRef       *string           `json:"evidence_ref,omitempty"`
}

type PortInfo struct {
	Protocol    string  `json:"protocol"`
	LocalAddress string `json:"local_address"`
	LocalPort   uint16  `json:"local_port"`
	State       string  `json:"state"`
	PID         *uint32 `json:"pid,omitempty"`
	ProcessName *string `json:"process_name,omitempty"`
	EvidenceRef *string `json:"evidence_ref,omitempty"`
}

type NetworkConn struct {
	Protocol      string  `json:"protocol"`
	LocalAddress  string  `json:"local_address"`
	LocalPort     uint16  `json:"local_port"`
	RemoteAddress string  `json:"remote_address"`
	RemotePort    uint16  `json:"remote_port"`
	State         string  `json:"state"`
	PID           *uint32 `json:"pid,omitempty"`
	ProcessName   *string `json:"process_name,omitempty"`
}

type Package struct {
	Name         string     `json:"name"`
	Version      string     `json:"version"`
	Architecture *string    `json:"architecture,omitempty"`
	Description  *string    `json:"description,omitempty"`
	InstallDate  *time.Time `json:"install_date,omitempty"`
	Source       string     `json:"source"`
}

type ScheduledTask struct {
	Name        string     `json:"name"`
	TaskType    string     `json:"task_type"`
	Schedule    *string    `json:"schedule,omitempty"`
	Command     *string    `json:"command,omitempty"`
	User        *string    `json:"user,omitempty"`
	Enabled     bool       `json:"enabled"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	EvidenceRef *string    `json:"evidence_ref,omitempty"`
}

type FileInfo struct {
	Path                 string     `json:"path"`
	SizeBytes            uint64     `json:"size_bytes"`
	ModifiedAt           *time.Time `json:"modified_at,omitempty"`
	Owner                *string    `json:"owner,omitempty"`
	Permissions          *string    `json:"permissions,omitempty"`
	ContentHash          *string    `json:"content_hash,omitempty"`
	AttachmentRef        *string    `json:"attachment_ref,omitempty"`
	DiscoveryMethod      string     `json:"discovery_method"`
	DiscoveryEvidenceRef *string    `json:"discovery_evidence_ref,omitempty"`
}

type EnvironmentFile struct {
	Path          string   `json:"path"`
	VariableNames []string `json:"variable_names"`
	EvidenceRef   *string  `json:"evidence_ref,omitempty"`
}

type CollectionError struct {
	Phase       string    `json:"phase"`
	Command     *string   `json:"command,omitempty"`
	Error       string    `json:"error"`
	Timestamp   time.Time `json:"timestamp"`
	Recoverable bool      `json:"recoverable"`
}

// StrPtr is a small helper for building *string literals inline.
func StrPtr(s string) *string { return &s }

// U32Ptr is a small helper for building *uint32 literals inline.
func U32Ptr(v uint32) *uint32 { return &v }
