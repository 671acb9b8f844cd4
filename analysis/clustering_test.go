package analysis

import (
	"testing"

	"github.com/hostsurvey/hostsurvey/model"
)

func TestClusterApplicationsGroupsServiceWithItsPortAndProcess(t *testing.T) {
	bundle := &model.Bundle{
		Manifest: model.Manifest{
			Services: []model.ServiceInfo{
				{
					Name:        "myapp.service",
					State:       "active",
					ExecStart:   model.StrPtr("/usr/bin/myapp"),
					MainPID:     model.U32Ptr(42),
					EvidenceRef: model.StrPtr("evidence/svc.txt"),
					Environment: map[string]string{"DB_PASSWORD": "x"},
				},
			},
			Processes: []model.ProcessInfo{
				{PID: 42, Command: "myapp", User: "appuser", FullCmdline: "/usr/bin/myapp --config=/etc/myapp.conf"},
			},
			Ports: []model.PortInfo{
				{LocalPort: 8080, Protocol: "tcp", PID: model.U32Ptr(42), EvidenceRef: model.StrPtr("evidence/port.txt")},
			},
		},
	}

	scores := map[uint32]ProcessScore{}
	clusters := ClusterApplications(bundle, scores, "app")

	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	c := clusters[0]
	if len(c.Processes) != 1 || c.Processes[0].PID != 42 {
		t.Errorf("expected cluster to include process 42, got %+v", c.Processes)
	}
	if len(c.Ports) != 1 || c.Ports[0].Port != 8080 {
		t.Errorf("expected cluster to include port 8080, got %+v", c.Ports)
	}
	if len(c.Decisions) == 0 {
		t.Error("expected at least one decision recorded")
	}

	foundSensitive := false
	for _, ev := range c.EnvVars {
		if ev.Name == "DB_PASSWORD" && ev.Sensitive {
			foundSensitive = true
		}
	}
	if !foundSensitive {
		t.Error("expected DB_PASSWORD env var to be flagged sensitive")
	}
}

func TestClusterApplicationsSkipsSystemServices(t *testing.T) {
	bundle := &model.Bundle{
		Manifest: model.Manifest{
			Services: []model.ServiceInfo{
				{Name: "systemd-udevd.service", State: "active"},
				{Name: "sshd.service", State: "active"},
			},
		},
	}

	clusters := ClusterApplications(bundle, map[uint32]ProcessScore{}, "app")
	if len(clusters) != 0 {
		t.Errorf("expected system services to be skipped, got %d clusters", len(clusters))
	}
}

func TestClusterApplicationsAddsStandaloneHighScoreProcess(t *testing.T) {
	bundle := &model.Bundle{
		Manifest: model.Manifest{
			Processes: []model.ProcessInfo{
				{PID: 99, Command: "java", FullCmdline: "java -jar app.jar", User: "appuser"},
			},
		},
	}

	scores := map[uint32]ProcessScore{
		99: {PID: 99, Name: "java", Score: 0.8, IsBusinessProcess: true},
	}

	clusters := ClusterApplications(bundle, scores, "app")
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	if clusters[0].Processes[0].PID != 99 {
		t.Errorf("expected standalone cluster for process 99")
	}
}

func TestDetectAppTypeFromExecStartPattern(t *testing.T) {
	bundle := &model.Bundle{}
	svc := model.ServiceInfo{Name: "mydb.service", ExecStart: model.StrPtr("/usr/bin/postgres -D /var/lib/postgres")}
	if got := detectAppType(svc, bundle); got != "database" {
		t.Errorf("detectAppType = %q, want database", got)
	}
}

func TestDetectAppTypeFromPort(t *testing.T) {
	bundle := &model.Bundle{
		Manifest: model.Manifest{
			Ports: []model.PortInfo{{LocalPort: 6379, PID: model.U32Ptr(7)}},
		},
	}
	svc := model.ServiceInfo{Name: "cacheservice.service", MainPID: model.U32Ptr(7)}
	if got := detectAppType(svc, bundle); got != "cache" {
		t.Errorf("detectAppType = %q, want cache", got)
	}
}
