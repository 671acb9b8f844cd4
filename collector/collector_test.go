package collector

import (
	"context"
	"strings"
	"testing"

	"github.com/hostsurvey/hostsurvey/executor"
	"github.com/hostsurvey/hostsurvey/model"
	"github.com/hostsurvey/hostsurvey/redact"
)

// fakeExecutor returns canned output for the first registered substring
// that matches the requested command line, and empty successful output
// for everything else. Real collection always runs real commands; this
// stub lets the pipeline be exercised without a shell or network.
type fakeExecutor struct {
	outputs map[string]string
}

func newFakeExecutor(outputs map[string]string) *fakeExecutor {
	return &fakeExecutor{outputs: outputs}
}

func (f *fakeExecutor) Execute(ctx context.Context, command string) (executor.Result, error) {
	for substr, out := range f.outputs {
		if strings.Contains(command, substr) {
			return executor.Result{ExitCode: int32Ptr(0), Stdout: out}, nil
		}
	}
	return executor.Result{ExitCode: int32Ptr(0), Stdout: ""}, nil
}

func (f *fakeExecutor) Close() error { return nil }

func int32Ptr(v int32) *int32 { return &v }

func TestCollectProducesManifestAndEvidence(t *testing.T) {
	exec := newFakeExecutor(map[string]string{
		"hostname":              "web01\n",
		"/etc/os-release":       "PRETTY_NAME=\"Ubuntu 22.04 LTS\"\n",
		"uname -r":              "5.15.0-generic\n",
		"uname -m":              "x86_64\n",
		"ps auxww":              "USER PID %CPU %MEM VSZ RSS TTY STAT START TIME COMMAND\nwww-data 1200 1.0 2.0 1000 2000 ? Ss 10:00 0:01 nginx\n",
		"list-units":            "nginx.service loaded active running nginx\n",
		"systemctl show nginx.service": "Id=nginx.service\nActiveState=active\nMainPID=1234\n",
		"systemctl cat nginx.service":  "ExecStart=/usr/sbin/nginx\n",
		"ss -lntup":             "Netid State Recv-Q Send-Q Local Peer\ntcp LISTEN 0 128 0.0.0.0:80 0.0.0.0:* users:((\"nginx\",pid=1200,fd=3))\n",
		"dpkg -l":               "ii nginx 1.18.0 amd64 web server\n",
		"/etc/hosts":            "127.0.0.1 localhost\n",
		"/etc/resolv.conf":      "nameserver 1.1.1.1\n",
	})

	c, err := New(Config{Target: "web01", OS: model.OsLinux, Mode: ModeLocalEphemeral}, exec, redact.New(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bundle, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if bundle.Manifest.System.Hostname != "web01" {
		t.Errorf("Hostname = %q, want web01", bundle.Manifest.System.Hostname)
	}
	if bundle.Manifest.System.OsVersion == nil || !strings.Contains(*bundle.Manifest.System.OsVersion, "Ubuntu") {
		t.Errorf("OsVersion = %v", bundle.Manifest.System.OsVersion)
	}
	if len(bundle.Manifest.Processes) != 1 {
		t.Fatalf("len(Processes) = %d, want 1", len(bundle.Manifest.Processes))
	}
	if len(bundle.Manifest.Services) != 1 || bundle.Manifest.Services[0].Name != "nginx.service" {
		t.Fatalf("Services = %+v", bundle.Manifest.Services)
	}
	if len(bundle.Manifest.Ports) != 1 || bundle.Manifest.Ports[0].LocalPort != 80 {
		t.Fatalf("Ports = %+v", bundle.Manifest.Ports)
	}
	if len(bundle.Manifest.Packages) != 1 {
		t.Fatalf("Packages = %+v", bundle.Manifest.Packages)
	}
	if len(bundle.Evidence) == 0 {
		t.Error("expected evidence to be recorded")
	}
	if len(bundle.Audit) == 0 {
		t.Error("expected audit entries to be recorded")
	}
	for i, e := range bundle.Audit {
		if e.Seq != uint64(i) {
			t.Errorf("audit entry %d has seq %d", i, e.Seq)
		}
	}
	if bundle.Manifest.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
}

func TestReadEnvironmentFileRecordsNamesNotValues(t *testing.T) {
	exec := newFakeExecutor(map[string]string{
		"/etc/myapp/env": "DB_PASSWORD=hunter2\nLOG_LEVEL=info\n# a comment\n",
	})
	c, err := New(Config{OS: model.OsLinux, Mode: ModeLocalEphemeral}, exec, redact.New(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ef, ok := c.readEnvironmentFile(context.Background(), "/etc/myapp/env")
	if !ok {
		t.Fatal("expected readEnvironmentFile to succeed")
	}
	if len(ef.VariableNames) != 2 {
		t.Fatalf("VariableNames = %v, want 2 entries", ef.VariableNames)
	}
	for _, name := range ef.VariableNames {
		if strings.Contains(name, "hunter2") {
			t.Error("variable name list must never contain a raw value")
		}
	}

	ev := c.evidence[*ef.EvidenceRef]
	if ev == nil {
		t.Fatal("expected evidence to be stored for environment file read")
	}
	if !strings.Contains(string(ev.Content), "REDACTED") {
		t.Errorf("expected password value to be redacted in evidence content, got %q", ev.Content)
	}
}

func TestCollectSystemInfoRecordsErrorsButDoesNotAbort(t *testing.T) {
	exec := newFakeExecutor(map[string]string{
		"hostname": "host1\n",
	})
	c, err := New(Config{OS: model.OsLinux, Mode: ModeLocalEphemeral}, exec, redact.New(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bundle, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect should not abort on individual stage errors: %v", err)
	}
	if bundle.Manifest.System.Hostname != "host1" {
		t.Errorf("Hostname = %q", bundle.Manifest.System.Hostname)
	}
}

func TestNewRejectsUnsupportedOS(t *testing.T) {
	_, err := New(Config{OS: model.OsType("plan9")}, newFakeExecutor(nil), redact.New(), nil, nil)
	if err == nil {
		t.Error("expected error for unsupported OS")
	}
}

func TestCollectServicesWindowsUsesSingleQuery(t *testing.T) {
	exec := newFakeExecutor(map[string]string{
		"Get-CimInstance Win32_Service": `[{"Name":"Spooler","State":"Running","StartMode":"Auto","PathName":"C:\\Windows\\System32\\spoolsv.exe","DisplayName":"Print Spooler"}]`,
	})
	c, err := New(Config{OS: model.OsWindows, Mode: ModeLocalEphemeral}, exec, redact.New(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	svcs, err := c.collectServices(context.Background())
	if err != nil {
		t.Fatalf("collectServices: %v", err)
	}
	if len(svcs) != 1 || svcs[0].Name != "Spooler" {
		t.Errorf("svcs = %+v", svcs)
	}
}
