package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hostsurvey/hostsurvey/model"
)

var endpointPattern = regexp.MustCompile(
	`(?i)(?:(?:mongodb|mysql|postgres|postgresql|redis|amqp|http|https)://\S+` +
		`|(?:host|hostname|server|endpoint)\s*[=:]\s*[^\s,]+` +
		`|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(?::\d+)?)`,
)

var dbHostPattern = regexp.MustCompile(
	`(?i)(?:database|db|redis|cache|mongo|postgres|mysql|rabbit|kafka)[-_]?(?:host|server|endpoint|url)\s*[=:]\s*([^\s,]+)`,
)

// DetectDependencies scans each cluster's config file evidence for
// connection strings and hostnames, splitting matches into internal
// dependencies (another cluster already listening on that port) and
// external dependencies, and returns the external list. Each match
// yields its own entry; repeated endpoints are not merged.
func DetectDependencies(bundle *model.Bundle, clusters []model.AppCluster) []model.DependencyInfo {
	var externalDeps []model.DependencyInfo
	depID := 0

	portToCluster := make(map[uint16]string)
	for i := range clusters {
		for _, port := range clusters[i].Ports {
			portToCluster[port.Port] = clusters[i].ID
		}
	}

	for i := range clusters {
		cluster := &clusters[i]
		for _, config := range cluster.ConfigFiles {
			if config.EvidenceRef == nil {
				continue
			}
			evidence, ok := bundle.Evidence[*config.EvidenceRef]
			if !ok || evidence.Content == nil {
				continue
			}
			content := string(evidence.Content)

			for _, endpoint := range endpointPattern.FindAllString(content, -1) {
				port := extractPortFromEndpoint(endpoint)

				if port != nil {
					if depClusterID, ok := portToCluster[*port]; ok && depClusterID != cluster.ID {
						if !containsString(cluster.DependsOn, depClusterID) {
							cluster.DependsOn = append(cluster.DependsOn, depClusterID)
							cluster.Decisions = append(cluster.Decisions, model.NewDecision(
								fmt.Sprintf("Depends on cluster %s (port %d)", depClusterID, *port),
								fmt.Sprintf("Found endpoint %s in config %s", endpoint, config.SourcePath),
								[]string{*config.EvidenceRef},
								0.9,
							))
						}
						continue
					}
				}

				depType := detectDependencyType(endpoint, port)
				dep := model.DependencyInfo{
					ID:           fmt.Sprintf("ext-%d", depID),
					DepType:      depType,
					Endpoint:     endpoint,
					Port:         port,
					UsedBy:       []string{cluster.ID},
					EvidenceRefs: []string{*config.EvidenceRef},
				}
				cluster.ExternalDeps = append(cluster.ExternalDeps, dep.ID)
				cluster.Decisions = append(cluster.Decisions, model.NewDecision(
					"External dependency detected: "+endpoint,
					"Found in config file: "+config.SourcePath,
					[]string{*config.EvidenceRef},
					0.8,
				))
				externalDeps = append(externalDeps, dep)
				depID++
			}

			for _, m := range dbHostPattern.FindAllStringSubmatch(content, -1) {
				host := m[1]
				if host == "localhost" || host == "127.0.0.1" {
					continue
				}
				dep := model.DependencyInfo{
					ID:           fmt.Sprintf("ext-%d", depID),
					DepType:      "database",
					Endpoint:     host,
					UsedBy:       []string{cluster.ID},
					EvidenceRefs: []string{*config.EvidenceRef},
				}
				cluster.ExternalDeps = append(cluster.ExternalDeps, dep.ID)
				cluster.Decisions = append(cluster.Decisions, model.NewDecision(
					"Database dependency detected: "+host,
					"Found DB_HOST pattern in config: "+config.SourcePath,
					[]string{*config.EvidenceRef},
					0.85,
				))
				externalDeps = append(externalDeps, dep)
				depID++
			}
		}

		for _, envVar := range cluster.EnvVars {
			nameLower := strings.ToLower(envVar.Name)
			for _, dp := range envDependencyPatterns {
				if containsAny(nameLower, dp.patterns) {
					cluster.Decisions = append(cluster.Decisions, model.NewDecision(
						fmt.Sprintf("Likely %s dependency from env var %s", dp.depType, envVar.Name),
						"Environment variable name suggests external dependency",
						refSlice(envVar.EvidenceRef),
						0.7,
					))
				}
			}
		}
	}

	return externalDeps
}

var envDependencyPatterns = []struct {
	depType  string
	patterns []string
}{
	{"database", []string{"database_url", "db_url", "db_host", "postgres", "mysql"}},
	{"cache", []string{"redis_url", "redis_host", "cache_url", "memcached"}},
	{"messagequeue", []string{"amqp_url", "rabbitmq", "kafka"}},
	{"api", []string{"api_url", "api_host", "service_url"}},
}

func extractPortFromEndpoint(endpoint string) *uint16 {
	if idx := strings.LastIndexByte(endpoint, ':'); idx >= 0 {
		portStr := endpoint[idx+1:]
		if i := strings.IndexByte(portStr, '/'); i >= 0 {
			portStr = portStr[:i]
		}
		if i := strings.IndexByte(portStr, '?'); i >= 0 {
			portStr = portStr[:i]
		}
		if port, err := strconv.ParseUint(portStr, 10, 16); err == nil {
			p := uint16(port)
			return &p
		}
	}

	switch {
	case strings.HasPrefix(endpoint, "postgres://"), strings.HasPrefix(endpoint, "postgresql://"):
		return u16Ptr(5432)
	case strings.HasPrefix(endpoint, "mysql://"):
		return u16Ptr(3306)
	case strings.HasPrefix(endpoint, "redis://"):
		return u16Ptr(6379)
	case strings.HasPrefix(endpoint, "mongodb://"):
		return u16Ptr(27017)
	case strings.HasPrefix(endpoint, "amqp://"):
		return u16Ptr(5672)
	case strings.HasPrefix(endpoint, "http://"):
		return u16Ptr(80)
	case strings.HasPrefix(endpoint, "https://"):
		return u16Ptr(443)
	}

	return nil
}

func detectDependencyType(endpoint string, port *uint16) string {
	endpointLower := strings.ToLower(endpoint)

	switch {
	case strings.HasPrefix(endpointLower, "postgres"), strings.HasPrefix(endpointLower, "mysql"):
		return "database"
	case strings.HasPrefix(endpointLower, "redis"), strings.HasPrefix(endpointLower, "memcached"):
		return "cache"
	case strings.HasPrefix(endpointLower, "amqp"), strings.Contains(endpointLower, "rabbit"), strings.Contains(endpointLower, "kafka"):
		return "messagequeue"
	case strings.HasPrefix(endpointLower, "mongodb"):
		return "database"
	}

	if port == nil {
		return "unknown"
	}
	switch *port {
	case 5432, 3306, 27017:
		return "database"
	case 6379, 11211:
		return "cache"
	case 5672, 15672, 9092:
		return "messagequeue"
	case 9200, 9300:
		return "search"
	case 80, 443, 8080:
		return "api"
	default:
		return "unknown"
	}
}

// BuildStartupDAG turns each cluster's DependsOn list into DagEdges. No
// graph library exists anywhere in the retrieved example pack, so the
// cycle check is a direct Kahn's-algorithm topological sort: repeatedly
// remove zero-indegree nodes until none remain or none can be removed.
func BuildStartupDAG(clusters []model.AppCluster, logger *zap.Logger) []model.DagEdge {
	var edges []model.DagEdge
	clusterIDs := make(map[string]bool, len(clusters))
	for _, c := range clusters {
		clusterIDs[c.ID] = true
	}

	indegree := make(map[string]int, len(clusters))
	adjacency := make(map[string][]string, len(clusters))
	for _, c := range clusters {
		indegree[c.ID] = 0
	}

	for _, c := range clusters {
		for _, depID := range c.DependsOn {
			if !clusterIDs[depID] {
				continue
			}
			adjacency[depID] = append(adjacency[depID], c.ID)
			indegree[c.ID]++
			edges = append(edges, model.DagEdge{
				From:   depID,
				To:     c.ID,
				Reason: fmt.Sprintf("Cluster %s depends on %s", c.ID, depID),
			})
		}
	}

	if hasCycle(clusters, indegree, adjacency) && logger != nil {
		logger.Warn("circular dependencies detected in startup DAG")
	}

	return edges
}

func hasCycle(clusters []model.AppCluster, indegree map[string]int, adjacency map[string][]string) bool {
	remaining := make(map[string]int, len(indegree))
	for k, v := range indegree {
		remaining[k] = v
	}

	var queue []string
	for _, c := range clusters {
		if remaining[c.ID] == 0 {
			queue = append(queue, c.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adjacency[n] {
			remaining[next]--
			if remaining[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	return visited != len(clusters)
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func u16Ptr(v uint16) *uint16 { return &v }
