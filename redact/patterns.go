// Package redact implements the two-stage sanitisation pipeline applied
// to every piece of evidence before it enters the bundle: pattern-based
// redaction of known secret shapes, followed by Shannon-entropy token
// detection for anything the patterns miss.
package redact

import "regexp"

var (
	secretKeyPattern       = regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token|api[_-]?key|apikey|auth[_-]?token|access[_-]?token|private[_-]?key|client[_-]?secret|bearer|credentials?|jwt|session[_-]?id|cookie|oauth)`)
	authHeaderPattern      = regexp.MustCompile(`(?i)(Authorization|X-Api-Key|X-Auth-Token|X-Access-Token):\s*\S+`)
	connectionStringPattern = regexp.MustCompile(`(?i)(mongodb|mysql|postgres|postgresql|redis|amqp|mssql)://[^\s]+`)
	dbURLPattern           = regexp.MustCompile(`(?i)[a-z]+://[^:]+:[^@]+@[^\s]+`)
	awsKeyPattern          = regexp.MustCompile(`(?i)(AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}`)
	awsSecretPattern       = regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[=:]\s*[A-Za-z0-9/+=]{40}`)
	genericAPIKeyPattern   = regexp.MustCompile(`(?i)(api[_-]?key|token|secret)\s*[=:]\s*[A-Za-z0-9_\-+/=]{20,}`)
	privateKeyPattern      = regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE\s+KEY-----`)
	envVarAssignmentPattern = regexp.MustCompile(`(?i)^([A-Z_][A-Z0-9_]*(?:PASSWORD|PASSWD|PWD|SECRET|TOKEN|API[_-]?KEY|APIKEY|AUTH|PRIVATE|CREDENTIALS?)[A-Z0-9_]*)\s*=\s*(.+)$`)
	jsonSensitiveKeyPattern = regexp.MustCompile(`(?i)"(password|secret|token|api[_-]?key|private[_-]?key|credentials?)"\s*:\s*"([^"]+)"`)
	yamlSensitiveKeyPattern = regexp.MustCompile(`(?i)^(\s*)(password|secret|token|api[_-]?key|private[_-]?key|credentials?):\s*(.+)$`)
)

// NamedPattern pairs a redaction pattern with the label recorded in
// RedactionStats for it.
type NamedPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// AllRedactionPatterns returns every pattern-based redaction rule, in
// the fixed order they are applied.
func AllRedactionPatterns() []NamedPattern {
	return []NamedPattern{
		{"auth_header", authHeaderPattern},
		{"connection_string", connectionStringPattern},
		{"db_url", dbURLPattern},
		{"aws_key", awsKeyPattern},
		{"aws_secret", awsSecretPattern},
		{"generic_api_key", genericAPIKeyPattern},
		{"private_key", privateKeyPattern},
		{"env_var_assignment", envVarAssignmentPattern},
		{"json_sensitive", jsonSensitiveKeyPattern},
		{"yaml_sensitive", yamlSensitiveKeyPattern},
	}
}

// IsSensitiveKey reports whether a key name (env var, config key) looks
// like it names a secret.
func IsSensitiveKey(key string) bool {
	return secretKeyPattern.MatchString(key)
}
