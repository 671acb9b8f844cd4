package bundlefile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hostsurvey/hostsurvey/model"
)

var (
	manifestSchema *jsonschema.Schema
	packPlanSchema *jsonschema.Schema
)

func init() {
	manifestSchema = mustCompile("manifest.json", manifestSchemaJSON)
	packPlanSchema = mustCompile("packplan.json", packPlanSchemaJSON)
}

func mustCompile(name, schemaJSON string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader([]byte(schemaJSON))); err != nil {
		panic(fmt.Sprintf("bundlefile: invalid embedded schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("bundlefile: failed to compile schema %s: %v", name, err))
	}
	return schema
}

// Result accumulates validation errors and warnings; Valid is false as
// soon as any error is added.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func newResult() *Result {
	return &Result{Valid: true}
}

func (r *Result) addError(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) merge(other *Result) {
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ValidateManifest checks manifest against the bundle's JSON schema.
func ValidateManifest(manifest *model.Manifest) (*Result, error) {
	result := newResult()

	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest for validation: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal manifest for validation: %w", err)
	}

	if err := manifestSchema.Validate(doc); err != nil {
		result.addError("schema validation failed: %s", err.Error())
	}

	return result, nil
}

// ValidatePackPlan checks plan against the packplan JSON schema, and
// in strict mode additionally requires every decision to cite at
// least one evidence reference.
func ValidatePackPlan(plan *model.PackPlan, strict bool) (*Result, error) {
	result := newResult()

	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal packplan for validation: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal packplan for validation: %w", err)
	}

	if err := packPlanSchema.Validate(doc); err != nil {
		result.addError("schema validation failed: %s", err.Error())
	}

	for _, cluster := range plan.Clusters {
		for _, decision := range cluster.Decisions {
			if !decision.HasEvidence() {
				msg := fmt.Sprintf("[%s] %s", cluster.ID, decision.Decision)
				if strict {
					result.addError("decision without evidence: %s", msg)
				} else {
					result.addWarning("decision without evidence: %s", msg)
				}
			}
		}
	}

	return result, nil
}

// ValidateBundle checks a fully loaded bundle: its manifest against the
// schema, plus evidence closure -- every evidence_ref and
// attachment_ref named in the manifest must resolve to an entry among
// the bundle's stored evidence blobs.
func ValidateBundle(bundle *model.Bundle) (*Result, error) {
	result := newResult()

	manifestResult, err := ValidateManifest(&bundle.Manifest)
	if err != nil {
		return nil, err
	}
	result.merge(manifestResult)

	evidenceFiles := make(map[string]bool, len(bundle.Evidence))
	for path := range bundle.Evidence {
		evidenceFiles[path] = true
	}

	checkRef := func(ref *string) {
		if ref == nil {
			return
		}
		if !evidenceFiles[*ref] {
			result.addError("invalid evidence reference: %s", *ref)
		}
	}

	for _, p := range bundle.Manifest.Processes {
		checkRef(p.EvidenceRef)
	}
	for _, s := range bundle.Manifest.Services {
		checkRef(s.EvidenceRef)
	}
	for _, p := range bundle.Manifest.Ports {
		checkRef(p.EvidenceRef)
	}
	for _, c := range bundle.Manifest.ConfigFiles {
		checkRef(c.AttachmentRef)
	}
	for _, l := range bundle.Manifest.LogFiles {
		checkRef(l.AttachmentRef)
	}
	for _, e := range bundle.Manifest.EnvironmentFiles {
		checkRef(e.EvidenceRef)
	}
	for _, t := range bundle.Manifest.ScheduledTasks {
		checkRef(t.EvidenceRef)
	}

	return result, nil
}

// ValidateFile reads the bundle at path and validates it. When
// verifyChecksums is set, every path listed in checksums.json must
// also match the sha256 of the evidence blob actually stored in the
// tarball.
func ValidateFile(path string, verifyChecksums bool) (*Result, error) {
	bundle, err := Read(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	result, err := ValidateBundle(bundle)
	if err != nil {
		return nil, err
	}

	if verifyChecksums {
		for path, expectedHash := range bundle.Checksums {
			evidence, ok := bundle.Evidence[path]
			if !ok {
				result.addWarning("checksum entry for %s has no matching evidence blob", path)
				continue
			}
			if evidence.ContentHash != expectedHash {
				result.addError("checksum mismatch for %s: expected %s, got %s", path, expectedHash, evidence.ContentHash)
			}
		}
	}

	return result, nil
}

// CheckAuditSequence requires audit entries to be gap-free and start
// at 0.
func CheckAuditSequence(entries []model.AuditEntry) error {
	for i, e := range entries {
		if e.Seq != uint64(i) {
			return fmt.Errorf("audit sequence gap: entry %d has seq %d, expected %d", i, e.Seq, i)
		}
	}
	return nil
}
