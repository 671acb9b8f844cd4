package analysis

import (
	"fmt"
	"strings"

	"github.com/hostsurvey/hostsurvey/model"
	"github.com/hostsurvey/hostsurvey/redact"
)

// ClusterApplications groups bundle's services and high-scoring
// standalone processes into logical AppClusters. Services are
// clustered first (the most reliable grouping signal); any remaining
// high-scoring process not already claimed by a service becomes its
// own standalone cluster.
func ClusterApplications(bundle *model.Bundle, scores map[uint32]ProcessScore, idPrefix string) []model.AppCluster {
	var clusters []model.AppCluster
	assignedServices := make(map[string]bool)
	clusterSeq := 0

	for _, svc := range bundle.Manifest.Services {
		if assignedServices[svc.Name] {
			continue
		}
		if containsAny(strings.ToLower(svc.Name), systemServicePatterns) {
			continue
		}

		cluster := newServiceCluster(bundle, svc, idPrefix, clusterSeq)
		assignedServices[svc.Name] = true
		clusterSeq++
		clusters = append(clusters, cluster)
	}

	for _, score := range scores {
		if !score.IsBusinessProcess {
			continue
		}
		if clusterHasProcess(clusters, score.PID) {
			continue
		}

		process, ok := findProcess(bundle.Manifest.Processes, score.PID)
		if !ok {
			continue
		}

		cluster := newProcessCluster(bundle, process, score, idPrefix, clusterSeq)
		clusterSeq++
		clusters = append(clusters, cluster)
	}

	return clusters
}

func newServiceCluster(bundle *model.Bundle, svc model.ServiceInfo, idPrefix string, seq int) model.AppCluster {
	clusterName := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSuffix(svc.Name, ".service"), ".", "-"), "_", "-")

	cluster := model.AppCluster{
		ID:          fmt.Sprintf("%s-%d", idPrefix, seq),
		Name:        clusterName,
		Description: svc.Description,
		AppType:     detectAppType(svc, bundle),
	}

	cluster.Services = append(cluster.Services, model.ClusterService{
		Name:             svc.Name,
		ExecStart:        svc.ExecStart,
		User:             svc.User,
		WorkingDirectory: svc.WorkingDirectory,
		Environment:      svc.Environment,
		EnvironmentFiles: svc.EnvironmentFiles,
		EvidenceRef:      svc.EvidenceRef,
	})

	if svc.EvidenceRef != nil {
		cluster.EvidenceRefs = append(cluster.EvidenceRefs, *svc.EvidenceRef)
	}

	cluster.Decisions = append(cluster.Decisions, model.NewDecision(
		fmt.Sprintf("Include service %s in cluster", svc.Name),
		"Service is a business application based on naming and configuration",
		refSlice(svc.EvidenceRef),
		0.8,
	))

	if svc.MainPID != nil {
		if proc, ok := findProcess(bundle.Manifest.Processes, *svc.MainPID); ok {
			cluster.Processes = append(cluster.Processes, model.ClusterProcess{
				PID:              proc.PID,
				Command:          proc.Command,
				Args:             proc.Args,
				User:             proc.User,
				WorkingDirectory: proc.WorkingDirectory,
				EvidenceRef:      proc.EvidenceRef,
			})
		}

		for _, port := range bundle.Manifest.Ports {
			if port.PID == nil || *port.PID != *svc.MainPID {
				continue
			}
			cluster.Ports = append(cluster.Ports, model.ClusterPort{
				Port:        port.LocalPort,
				Protocol:    port.Protocol,
				EvidenceRef: port.EvidenceRef,
			})
			cluster.Decisions = append(cluster.Decisions, model.NewDecision(
				fmt.Sprintf("Service listens on port %d", port.LocalPort),
				"Port found via ss/netstat associated with service PID",
				refSlice(port.EvidenceRef),
				0.95,
			))
		}
	}

	for name := range svc.Environment {
		sensitive := redact.IsSensitiveKey(name)
		cluster.EnvVars = append(cluster.EnvVars, model.EnvVarSpec{
			Name:        name,
			Required:    true,
			Sensitive:   sensitive,
			EvidenceRef: svc.EvidenceRef,
		})
	}

	for _, envFile := range svc.EnvironmentFiles {
		fi, ok := findEnvironmentFile(bundle.Manifest.EnvironmentFiles, envFile)
		if !ok {
			continue
		}
		cluster.ConfigFiles = append(cluster.ConfigFiles, model.ConfigFileSpec{
			SourcePath:    envFile,
			ContainerPath: envFile,
			Templated:     true,
			TemplateVars:  fi.VariableNames,
			EvidenceRef:   fi.EvidenceRef,
		})

		for _, varName := range fi.VariableNames {
			sensitive := redact.IsSensitiveKey(varName)
			cluster.EnvVars = append(cluster.EnvVars, model.EnvVarSpec{
				Name:        varName,
				Required:    true,
				Description: model.StrPtr("From environment file: " + envFile),
				Sensitive:   sensitive,
				EvidenceRef: fi.EvidenceRef,
			})
		}
	}

	if svc.WorkingDirectory != nil {
		for _, cfg := range bundle.Manifest.ConfigFiles {
			if strings.HasPrefix(cfg.Path, *svc.WorkingDirectory) {
				cluster.ConfigFiles = append(cluster.ConfigFiles, model.ConfigFileSpec{
					SourcePath:    cfg.Path,
					ContainerPath: cfg.Path,
					EvidenceRef:   cfg.AttachmentRef,
				})
			}
		}
	}

	return cluster
}

func newProcessCluster(bundle *model.Bundle, process model.ProcessInfo, score ProcessScore, idPrefix string, seq int) model.AppCluster {
	cluster := model.AppCluster{
		ID:          fmt.Sprintf("%s-%d", idPrefix, seq),
		Name:        score.Name,
		Description: model.StrPtr("Standalone process: " + process.FullCmdline),
		AppType:     "unknown",
		Processes: []model.ClusterProcess{{
			PID:              process.PID,
			Command:          process.Command,
			Args:             process.Args,
			User:             process.User,
			WorkingDirectory: process.WorkingDirectory,
			EvidenceRef:      process.EvidenceRef,
		}},
		EvidenceRefs: refSlice(process.EvidenceRef),
		Decisions: []model.Decision{model.NewDecision(
			fmt.Sprintf("Create cluster for process %s", process.Command),
			fmt.Sprintf("High business relevance score: %.2f", score.Score),
			refSlice(process.EvidenceRef),
			score.Score,
		)},
	}

	for _, port := range bundle.Manifest.Ports {
		if port.PID != nil && *port.PID == process.PID {
			cluster.Ports = append(cluster.Ports, model.ClusterPort{
				Port:        port.LocalPort,
				Protocol:    port.Protocol,
				EvidenceRef: port.EvidenceRef,
			})
		}
	}

	return cluster
}

var appTypePatterns = []struct {
	pattern string
	appType string
}{
	{"nginx", "proxy"}, {"apache", "web"}, {"httpd", "web"},
	{"java", "api"}, {"node", "api"}, {"python", "api"}, {"ruby", "api"}, {"dotnet", "api"},
	{"postgres", "database"}, {"mysql", "database"}, {"mariadb", "database"},
	{"redis", "cache"}, {"memcached", "cache"},
	{"rabbitmq", "messagequeue"}, {"kafka", "messagequeue"},
	{"elasticsearch", "search"},
	{"worker", "worker"}, {"celery", "worker"}, {"sidekiq", "worker"},
}

func detectAppType(svc model.ServiceInfo, bundle *model.Bundle) string {
	nameLower := strings.ToLower(svc.Name)
	execLower := ""
	if svc.ExecStart != nil {
		execLower = strings.ToLower(*svc.ExecStart)
	}

	for _, p := range appTypePatterns {
		if strings.Contains(nameLower, p.pattern) || strings.Contains(execLower, p.pattern) {
			return p.appType
		}
	}

	if svc.MainPID != nil {
		for _, port := range bundle.Manifest.Ports {
			if port.PID == nil || *port.PID != *svc.MainPID {
				continue
			}
			switch port.LocalPort {
			case 80, 443, 8080, 8443:
				return "web"
			case 3000, 5000, 8000:
				return "api"
			case 5432, 3306:
				return "database"
			case 6379:
				return "cache"
			case 5672, 15672:
				return "messagequeue"
			}
		}
	}

	return "unknown"
}

func clusterHasProcess(clusters []model.AppCluster, pid uint32) bool {
	for _, c := range clusters {
		for _, p := range c.Processes {
			if p.PID == pid {
				return true
			}
		}
	}
	return false
}

func findProcess(processes []model.ProcessInfo, pid uint32) (model.ProcessInfo, bool) {
	for _, p := range processes {
		if p.PID == pid {
			return p, true
		}
	}
	return model.ProcessInfo{}, false
}

func findEnvironmentFile(files []model.EnvironmentFile, path string) (model.EnvironmentFile, bool) {
	for _, f := range files {
		if f.Path == path {
			return f, true
		}
	}
	return model.EnvironmentFile{}, false
}

func refSlice(ref *string) []string {
	if ref == nil {
		return nil
	}
	return []string{*ref}
}
