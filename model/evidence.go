package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EvidenceType classifies what an Evidence blob contains.
type EvidenceType string

const (
	EvidenceCommandOutput EvidenceType = "command_output"
	EvidenceConfigFile    EvidenceType = "config_file"
	EvidenceLogSnippet    EvidenceType = "log_snippet"
	EvidenceEnvFile       EvidenceType = "env_file"
	EvidenceUnitFile      EvidenceType = "unit_file"
	EvidenceFileContent   EvidenceType = "file_content"
)

// Evidence is the metadata and content backing every Decision and every
// audit entry. Content is never part of the JSON metadata representation
// (it lives at its BundlePath inside the tarball); it is only populated
// here while the bundle is held in memory.
type Evidence struct {
	ID             string       `json:"id"`
	EvidenceType   EvidenceType `json:"evidence_type"`
	CollectedAt    time.Time    `json:"collected_at"`
	SourceCommand  *string      `json:"source_command,omitempty"`
	SizeBytes      uint64       `json:"size_bytes"`
	ContentHash    string       `json:"content_hash"`
	Redacted       bool         `json:"redacted"`
	BundlePath     string       `json:"bundle_path"`
	OriginalPath   *string      `json:"original_path,omitempty"`
	Content        []byte       `json:"-"`
}

// Sha256Bytes hashes data and returns its lowercase hex digest.
func Sha256Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Sha256Str hashes a string and returns its lowercase hex digest.
func Sha256Str(s string) string { return Sha256Bytes([]byte(s)) }

// NewCommandOutputEvidence builds Evidence from a command's (redacted)
// combined output.
func NewCommandOutputEvidence(id, command string, content []byte, bundlePath string) *Evidence {
	return &Evidence{
		ID:            id,
		EvidenceType:  EvidenceCommandOutput,
		CollectedAt:   time.Now().UTC(),
		SourceCommand: StrPtr(command),
		SizeBytes:     uint64(len(content)),
		ContentHash:   Sha256Bytes(content),
		BundlePath:    bundlePath,
		Content:       content,
	}
}

// NewFileEvidence builds Evidence from file content collected off the
// target (a config file, log snippet, or other read).
func NewFileEvidence(id string, evidenceType EvidenceType, content []byte, bundlePath, originalPath string) *Evidence {
	return &Evidence{
		ID:           id,
		EvidenceType: evidenceType,
		CollectedAt:  time.Now().UTC(),
		SizeBytes:    uint64(len(content)),
		ContentHash:  Sha256Bytes(content),
		BundlePath:   bundlePath,
		OriginalPath: StrPtr(originalPath),
		Content:      content,
	}
}

// MarkRedacted flags this evidence as having passed through the redactor.
func (e *Evidence) MarkRedacted() { e.Redacted = true }
