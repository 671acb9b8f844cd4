package bundlefile

// manifestSchemaJSON is the JSON Schema for manifest.json, compiled once
// at package init and reused by every Validate call.
const manifestSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "manifest",
  "type": "object",
  "required": ["schema_version", "collection_id", "collected_at", "system", "processes", "services", "ports"],
  "properties": {
    "schema_version": {"type": "string"},
    "collection_id": {"type": "string"},
    "collected_at": {"type": "string"},
    "completed_at": {"type": ["string", "null"]},
    "system": {
      "type": "object",
      "required": ["hostname", "os_type"],
      "properties": {
        "hostname": {"type": "string"},
        "os_type": {"type": "string", "enum": ["linux", "windows"]}
      }
    },
    "processes": {"type": "array"},
    "services": {"type": "array"},
    "ports": {"type": "array"}
  }
}`

// packPlanSchemaJSON is the JSON Schema for a generated PackPlan.
const packPlanSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "packplan",
  "type": "object",
  "required": ["schema_version", "generated_at", "source_bundle_id", "clusters"],
  "properties": {
    "schema_version": {"type": "string"},
    "generated_at": {"type": "string"},
    "source_bundle_id": {"type": "string"},
    "clusters": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "app_type", "decisions"],
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "app_type": {"type": "string"},
          "confidence": {"type": "number"},
          "decisions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["decision", "reason", "evidence_refs", "confidence"],
              "properties": {
                "decision": {"type": "string"},
                "reason": {"type": "string"},
                "evidence_refs": {"type": "array", "items": {"type": "string"}},
                "confidence": {"type": "number"}
              }
            }
          }
        }
      }
    }
  }
}`
