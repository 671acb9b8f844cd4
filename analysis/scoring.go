// Package analysis turns a collected model.Bundle into a model.PackPlan:
// scored processes and services, application clusters, dependency
// detection, a startup DAG, and per-cluster confidence.
package analysis

import (
	"strings"

	"github.com/hostsurvey/hostsurvey/model"
)

// ProcessScore is a process's business-relevance score plus the
// reasons that produced it.
type ProcessScore struct {
	PID               uint32
	Name              string
	Score             float64
	Reasons           []string
	IsBusinessProcess bool
}

var systemProcessPrefixes = []string{
	"kworker", "migration", "ksoftirqd", "rcu_", "watchdog",
	"kthreadd", "kswapd", "khugepaged", "kcompactd",
}

var containerProcessKeywords = []string{"docker", "containerd", "kubelet", "crio"}

var businessServiceKeywords = []string{
	"nginx", "apache", "httpd", "java", "python", "node", "ruby", "php", "dotnet",
	"postgres", "mysql", "redis", "mongo", "rabbit", "kafka", "elastic",
}

var nonBusinessUsers = map[string]bool{"nobody": true, "daemon": true, "systemd-network": true}

// ScoreProcesses scores every process in manifest for likelihood of
// being a business application rather than a system/kernel process.
func ScoreProcesses(manifest *model.Manifest) map[uint32]ProcessScore {
	scores := make(map[uint32]ProcessScore, len(manifest.Processes))

	for _, process := range manifest.Processes {
		score := 0.5
		var reasons []string

		if hasAnyPrefix(process.Command, systemProcessPrefixes) {
			score = 0.1
			reasons = append(reasons, "System kernel thread")
		}

		if containsAny(process.Command, containerProcessKeywords) {
			score = 0.3
			reasons = append(reasons, "Container runtime process")
		}

		cmdLower := strings.ToLower(process.Command)
		cmdlineLower := strings.ToLower(process.FullCmdline)
		if containsAny(cmdLower, businessServiceKeywords) || containsAny(cmdlineLower, businessServiceKeywords) {
			score = 0.8
			reasons = append(reasons, "Known application framework")
		}

		for _, port := range manifest.Ports {
			if port.PID != nil && *port.PID == process.PID {
				score = max(score, 0.7)
				reasons = append(reasons, "Listening on network port")
				break
			}
		}

		for _, svc := range manifest.Services {
			if svc.MainPID != nil && *svc.MainPID == process.PID {
				score = max(score, 0.8)
				reasons = append(reasons, "Managed by systemd service: "+svc.Name)
			}
		}

		if process.User != "root" && !nonBusinessUsers[process.User] {
			score += 0.1
			reasons = append(reasons, "Runs as user: "+process.User)
		}

		if len(process.FullCmdline) > 100 {
			score += 0.05
			reasons = append(reasons, "Has complex command line")
		}

		scores[process.PID] = ProcessScore{
			PID:               process.PID,
			Name:              process.Command,
			Score:             score,
			Reasons:           reasons,
			IsBusinessProcess: score >= 0.6,
		}
	}

	return scores
}

var systemServicePatterns = []string{
	"systemd-", "dbus", "polkit", "getty", "sshd", "cron",
	"rsyslog", "auditd", "firewalld", "networkmanager",
}

// ScoreServices scores every service in manifest for business
// relevance, keyed by service name.
func ScoreServices(manifest *model.Manifest) map[string]float64 {
	scores := make(map[string]float64, len(manifest.Services))

	for _, svc := range manifest.Services {
		score := 0.5
		nameLower := strings.ToLower(svc.Name)

		if containsAny(nameLower, systemServicePatterns) {
			score = 0.2
		}

		if svc.WorkingDirectory != nil {
			score = max(score, 0.6)
		}

		if len(svc.EnvironmentFiles) > 0 {
			score = max(score, 0.7)
		}

		if svc.User != nil && *svc.User != "root" {
			score = max(score, 0.7)
		}

		scores[svc.Name] = score
	}

	return scores
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
