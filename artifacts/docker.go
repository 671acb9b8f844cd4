// Package artifacts renders the generated-output side of analysis: a
// Dockerfile, entrypoint script, config templates, README, and a
// docker-compose file per pack plan, all as lift-and-shift starting
// points rather than production-ready artifacts.
package artifacts

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hostsurvey/hostsurvey/model"
)

// GenerateDockerfile renders a starter Dockerfile for cluster, picking
// a base image from the service's detected runtime and app type.
func GenerateDockerfile(cluster *model.AppCluster) string {
	var b strings.Builder

	baseImage := detectBaseImage(cluster)

	fmt.Fprintf(&b, "# Auto-generated Dockerfile for %s\n", cluster.Name)
	fmt.Fprintf(&b, "# Confidence: %.2f\n", cluster.Confidence)
	b.WriteString("#\n")
	b.WriteString("# IMPORTANT: Review and adjust before production use.\n")
	b.WriteString("# This is a lift-and-shift migration starting point.\n\n")

	fmt.Fprintf(&b, "FROM %s\n\n", baseImage)

	b.WriteString("LABEL maintainer=\"hostsurvey-generated\"\n")
	fmt.Fprintf(&b, "LABEL app.type=\"%s\"\n\n", cluster.AppType)

	workdir := "/app"
	if len(cluster.Services) > 0 && cluster.Services[0].WorkingDirectory != nil {
		workdir = *cluster.Services[0].WorkingDirectory
	}
	fmt.Fprintf(&b, "WORKDIR %s\n\n", workdir)

	b.WriteString("# Copy entrypoint script\n")
	b.WriteString("COPY entrypoint.sh /entrypoint.sh\n")
	b.WriteString("RUN chmod +x /entrypoint.sh\n\n")

	if len(cluster.ConfigFiles) > 0 {
		b.WriteString("# Copy configuration templates\n")
		b.WriteString("COPY templates/ /templates/\n\n")
	}

	b.WriteString("# Copy application files (adjust path as needed)\n")
	b.WriteString("# COPY pack/ /app/\n\n")

	if len(cluster.Services) > 0 && cluster.Services[0].User != nil && *cluster.Services[0].User != "root" {
		user := *cluster.Services[0].User
		b.WriteString("# Create application user\n")
		fmt.Fprintf(&b, "RUN adduser --disabled-password --gecos '' %s || true\n", user)
		fmt.Fprintf(&b, "USER %s\n\n", user)
	}

	if len(cluster.Ports) > 0 {
		b.WriteString("# Expose ports\n")
		for _, port := range cluster.Ports {
			fmt.Fprintf(&b, "EXPOSE %d\n", port.Port)
		}
		b.WriteString("\n")
	}

	if len(cluster.EnvVars) > 0 {
		b.WriteString("# Environment variables (set at runtime)\n")
		for _, env := range cluster.EnvVars {
			if !env.Sensitive {
				if env.DefaultValue != nil {
					fmt.Fprintf(&b, "ENV %s=\"%s\"\n", env.Name, *env.DefaultValue)
				}
			} else {
				fmt.Fprintf(&b, "# ENV %s - sensitive, set at runtime\n", env.Name)
			}
		}
		b.WriteString("\n")
	}

	if cluster.Readiness != nil {
		r := cluster.Readiness
		fmt.Fprintf(&b, "HEALTHCHECK --interval=%ds --timeout=%ds --retries=%d \\\n", r.IntervalSeconds, r.TimeoutSeconds, r.Retries)
		switch r.CheckType {
		case "http":
			path := "/health"
			if r.Path != nil {
				path = *r.Path
			}
			port := uint16(80)
			if r.Port != nil {
				port = *r.Port
			}
			fmt.Fprintf(&b, "  CMD curl -f http://localhost:%d%s || exit 1\n\n", port, path)
		case "tcp":
			port := uint16(80)
			if r.Port != nil {
				port = *r.Port
			}
			fmt.Fprintf(&b, "  CMD nc -z localhost %d || exit 1\n\n", port)
		default:
			b.WriteString("  CMD exit 0\n\n")
		}
	}

	b.WriteString("ENTRYPOINT [\"/entrypoint.sh\"]\n")

	if len(cluster.Services) > 0 && cluster.Services[0].ExecStart != nil {
		parts := strings.Fields(*cluster.Services[0].ExecStart)
		if len(parts) > 0 {
			quoted := make([]string, len(parts))
			for i, p := range parts {
				quoted[i] = fmt.Sprintf("%q", p)
			}
			fmt.Fprintf(&b, "CMD [%s]\n", strings.Join(quoted, ", "))
		}
	}

	return b.String()
}

func detectBaseImage(cluster *model.AppCluster) string {
	execStart := ""
	if len(cluster.Services) > 0 && cluster.Services[0].ExecStart != nil {
		execStart = *cluster.Services[0].ExecStart
	}

	switch cluster.AppType {
	case "api", "web":
		switch {
		case strings.Contains(execStart, "node") || strings.Contains(execStart, "npm"):
			return "node:20-alpine"
		case strings.Contains(execStart, "python"):
			return "python:3.11-slim"
		case strings.Contains(execStart, "java"):
			return "eclipse-temurin:17-jre-alpine"
		case strings.Contains(execStart, "dotnet"):
			return "mcr.microsoft.com/dotnet/aspnet:8.0"
		default:
			return "debian:bookworm-slim"
		}
	case "proxy":
		return "nginx:alpine"
	default:
		return "debian:bookworm-slim"
	}
}

// GenerateEntrypoint renders a starter entrypoint.sh for cluster:
// config-template rendering via envsubst, a wait-for-dependency helper,
// then exec of the container command.
func GenerateEntrypoint(cluster *model.AppCluster) string {
	var b strings.Builder

	b.WriteString("#!/bin/bash\n")
	b.WriteString("set -e\n\n")
	fmt.Fprintf(&b, "# Auto-generated entrypoint for %s\n\n", cluster.Name)

	hasTemplated := false
	for _, c := range cluster.ConfigFiles {
		if c.Templated {
			hasTemplated = true
			break
		}
	}

	if hasTemplated {
		b.WriteString("# Render configuration templates\n")
		b.WriteString("render_template() {\n")
		b.WriteString("  local src=\"$1\"\n")
		b.WriteString("  local dst=\"$2\"\n")
		b.WriteString("  envsubst < \"$src\" > \"$dst\"\n")
		b.WriteString("}\n\n")

		for _, c := range cluster.ConfigFiles {
			if !c.Templated {
				continue
			}
			filename := filepath.Base(c.SourcePath)
			fmt.Fprintf(&b, "render_template /templates/%s.tmpl %s\n", filename, c.ContainerPath)
		}
		b.WriteString("\n")
	}

	if len(cluster.DependsOn) > 0 || len(cluster.ExternalDeps) > 0 {
		b.WriteString("# Wait for dependencies\n")
		b.WriteString("wait_for_port() {\n")
		b.WriteString("  local host=\"$1\"\n")
		b.WriteString("  local port=\"$2\"\n")
		b.WriteString("  local retries=\"${3:-30}\"\n")
		b.WriteString("  local wait=\"${4:-2}\"\n")
		b.WriteString("  \n")
		b.WriteString("  echo \"Waiting for $host:$port...\"\n")
		b.WriteString("  for i in $(seq 1 $retries); do\n")
		b.WriteString("    if nc -z \"$host\" \"$port\" 2>/dev/null; then\n")
		b.WriteString("      echo \"$host:$port is available\"\n")
		b.WriteString("      return 0\n")
		b.WriteString("    fi\n")
		b.WriteString("    sleep $wait\n")
		b.WriteString("  done\n")
		b.WriteString("  echo \"Timeout waiting for $host:$port\"\n")
		b.WriteString("  return 1\n")
		b.WriteString("}\n\n")

		b.WriteString("# Example dependency waits (configure as needed):\n")
		for _, dep := range cluster.DependsOn {
			fmt.Fprintf(&b, "# wait_for_port %s <port>\n", dep)
		}
		b.WriteString("\n")
	}

	b.WriteString("# Execute the main command\n")
	b.WriteString("exec \"$@\"\n")

	return b.String()
}

// GenerateConfigTemplate renders a placeholder config template for a
// ConfigFileSpec, listing its template variables as ${VAR} references.
func GenerateConfigTemplate(config model.ConfigFileSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Auto-generated template from %s\n", config.SourcePath)
	b.WriteString("#\n")
	b.WriteString("# Template variables:\n")
	for _, v := range config.TemplateVars {
		fmt.Fprintf(&b, "#   ${%s}\n", v)
	}
	b.WriteString("#\n")
	b.WriteString("# Replace the content below with actual configuration,\n")
	b.WriteString("# using ${VAR_NAME} syntax for templated values.\n\n")

	for _, v := range config.TemplateVars {
		fmt.Fprintf(&b, "# %s=${%s}\n", v, v)
	}

	return b.String()
}

// GenerateReadme renders a Markdown README describing cluster: its
// services, ports, environment variables, config files, dependencies,
// and a build/run quickstart.
func GenerateReadme(cluster *model.AppCluster) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", cluster.Name)
	if cluster.Description != nil {
		fmt.Fprintf(&b, "%s\n\n", *cluster.Description)
	}

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- **Type**: %s\n", cluster.AppType)
	fmt.Fprintf(&b, "- **Confidence**: %.0f%%\n", cluster.Confidence*100)
	b.WriteString("\n")

	if len(cluster.Services) > 0 {
		b.WriteString("## Services\n\n")
		for _, svc := range cluster.Services {
			fmt.Fprintf(&b, "- **%s**\n", svc.Name)
			if svc.ExecStart != nil {
				fmt.Fprintf(&b, "  - Command: `%s`\n", *svc.ExecStart)
			}
			if svc.User != nil {
				fmt.Fprintf(&b, "  - User: `%s`\n", *svc.User)
			}
		}
		b.WriteString("\n")
	}

	if len(cluster.Ports) > 0 {
		b.WriteString("## Ports\n\n")
		b.WriteString("| Port | Protocol | Purpose |\n")
		b.WriteString("|------|----------|--------|\n")
		for _, port := range cluster.Ports {
			purpose := "Unknown"
			if port.Purpose != nil {
				purpose = *port.Purpose
			}
			fmt.Fprintf(&b, "| %d | %s | %s |\n", port.Port, port.Protocol, purpose)
		}
		b.WriteString("\n")
	}

	if len(cluster.EnvVars) > 0 {
		b.WriteString("## Environment Variables\n\n")
		b.WriteString("| Variable | Required | Sensitive | Description |\n")
		b.WriteString("|----------|----------|-----------|-------------|\n")
		for _, env := range cluster.EnvVars {
			required, sensitive := "No", "No"
			if env.Required {
				required = "Yes"
			}
			if env.Sensitive {
				sensitive = "Yes"
			}
			desc := ""
			if env.Description != nil {
				desc = *env.Description
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", env.Name, required, sensitive, desc)
		}
		b.WriteString("\n")
	}

	if len(cluster.ConfigFiles) > 0 {
		b.WriteString("## Configuration Files\n\n")
		for _, c := range cluster.ConfigFiles {
			fmt.Fprintf(&b, "- `%s` -> `%s`", c.SourcePath, c.ContainerPath)
			if c.Templated {
				b.WriteString(" (templated)")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(cluster.DependsOn) > 0 || len(cluster.ExternalDeps) > 0 {
		b.WriteString("## Dependencies\n\n")
		if len(cluster.DependsOn) > 0 {
			b.WriteString("### Internal Dependencies\n\n")
			for _, dep := range cluster.DependsOn {
				fmt.Fprintf(&b, "- %s\n", dep)
			}
			b.WriteString("\n")
		}
		if len(cluster.ExternalDeps) > 0 {
			b.WriteString("### External Dependencies\n\n")
			for _, dep := range cluster.ExternalDeps {
				fmt.Fprintf(&b, "- %s\n", dep)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Build & Run\n\n")
	b.WriteString("```bash\n")
	b.WriteString("# Build the image\n")
	fmt.Fprintf(&b, "docker build -t %s .\n\n", cluster.Name)
	b.WriteString("# Run the container\n")
	b.WriteString("docker run -d")
	for _, port := range cluster.Ports {
		fmt.Fprintf(&b, " -p %d:%d", port.Port, port.Port)
	}
	for _, env := range cluster.EnvVars {
		if env.Required && !env.Sensitive {
			fmt.Fprintf(&b, " -e %s=<value>", env.Name)
		}
	}
	fmt.Fprintf(&b, " %s\n", cluster.Name)
	b.WriteString("```\n\n")

	b.WriteString("## Notes\n\n")
	b.WriteString("This Dockerfile was auto-generated by hostsurvey analyzer.\n")
	b.WriteString("Review the following before production use:\n\n")
	b.WriteString("- [ ] Verify base image is appropriate\n")
	b.WriteString("- [ ] Add application files to the image\n")
	b.WriteString("- [ ] Configure environment variables\n")
	b.WriteString("- [ ] Review and adjust config templates\n")
	b.WriteString("- [ ] Set up proper health checks\n")
	b.WriteString("- [ ] Configure logging\n")

	return b.String()
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Build       composeBuild              `yaml:"build"`
	Ports       []string                  `yaml:"ports,omitempty"`
	Environment map[string]string         `yaml:"environment,omitempty"`
	DependsOn   map[string]composeDepends `yaml:"depends_on,omitempty"`
	Healthcheck *composeHealthcheck       `yaml:"healthcheck,omitempty"`
}

type composeBuild struct {
	Context    string `yaml:"context"`
	Dockerfile string `yaml:"dockerfile"`
}

type composeDepends struct {
	Condition string `yaml:"condition"`
}

type composeHealthcheck struct {
	Test     []string `yaml:"test"`
	Interval string   `yaml:"interval"`
	Timeout  string   `yaml:"timeout"`
	Retries  int      `yaml:"retries"`
}

// GenerateCompose renders a docker-compose.yaml covering every cluster
// in plan, wiring ports, environment, depends_on, and a basic TCP
// healthcheck.
func GenerateCompose(plan *model.PackPlan) string {
	file := composeFile{Services: map[string]composeService{}}

	for _, cluster := range plan.Clusters {
		svc := composeService{
			Build: composeBuild{
				Context:    "./" + cluster.ID,
				Dockerfile: "Dockerfile",
			},
		}

		for _, port := range cluster.Ports {
			svc.Ports = append(svc.Ports, fmt.Sprintf("%d:%d", port.Port, port.Port))
		}

		for _, env := range cluster.EnvVars {
			if env.Sensitive {
				continue
			}
			if svc.Environment == nil {
				svc.Environment = map[string]string{}
			}
			if env.DefaultValue != nil {
				svc.Environment[env.Name] = *env.DefaultValue
			} else {
				svc.Environment[env.Name] = fmt.Sprintf("${%s:-}", env.Name)
			}
		}

		if len(cluster.DependsOn) > 0 {
			svc.DependsOn = map[string]composeDepends{}
			for _, dep := range cluster.DependsOn {
				svc.DependsOn[dep] = composeDepends{Condition: "service_healthy"}
			}
		}

		if len(cluster.Ports) > 0 {
			svc.Healthcheck = &composeHealthcheck{
				Test:     []string{"CMD", "nc", "-z", "localhost", fmt.Sprintf("%d", cluster.Ports[0].Port)},
				Interval: "10s",
				Timeout:  "5s",
				Retries:  3,
			}
		}

		file.Services[cluster.ID] = svc
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		// Marshaling a plain struct of strings/maps/slices cannot fail;
		// surface the error text rather than panic if it somehow does.
		return fmt.Sprintf("# error generating docker-compose.yaml: %v\n", err)
	}

	var b strings.Builder
	b.WriteString("# Auto-generated docker-compose.yaml\n")
	b.WriteString("# Generated by hostsurvey analyzer\n\n")
	b.Write(data)
	return b.String()
}
