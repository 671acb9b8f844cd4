package parsers

import (
	"testing"

	"github.com/hostsurvey/hostsurvey/model"
)

func TestParseProcessesLinux(t *testing.T) {
	output := "USER PID %CPU %MEM VSZ RSS TTY STAT START TIME COMMAND\n" +
		"root         1  0.1  0.3 168000 12000 ?        Ss   Jan01   0:05 /sbin/init\n" +
		"www-data  1200  2.5  1.1 231212 45000 ?        Sl   10:00   0:12 nginx: worker process\n"

	procs, err := ParseProcesses(output, model.OsLinux)
	if err != nil {
		t.Fatalf("ParseProcesses: %v", err)
	}
	if len(procs) != 2 {
		t.Fatalf("len(procs) = %d, want 2", len(procs))
	}
	if procs[0].PID != 1 || procs[0].Command != "/sbin/init" {
		t.Errorf("first process = %+v", procs[0])
	}
	if procs[1].User != "www-data" {
		t.Errorf("second process user = %q, want www-data", procs[1].User)
	}
	if procs[1].Args == nil {
		t.Error("expected args for process with extra command tokens")
	}
}

func TestParseProcessesWindows(t *testing.T) {
	output := `[{"ProcessId": 4, "ParentProcessId": 0, "Name": "System", "CommandLine": null}]`
	procs, err := ParseProcesses(output, model.OsWindows)
	if err != nil {
		t.Fatalf("ParseProcesses: %v", err)
	}
	if len(procs) != 1 || procs[0].PID != 4 {
		t.Errorf("procs = %+v", procs)
	}
}

func TestParseProcessesWindowsSingleObject(t *testing.T) {
	output := `{"ProcessId": 100, "ParentProcessId": 1, "Name": "svchost.exe", "CommandLine": "svchost.exe -k netsvcs"}`
	procs, err := ParseProcesses(output, model.OsWindows)
	if err != nil {
		t.Fatalf("ParseProcesses: %v", err)
	}
	if len(procs) != 1 || procs[0].Command != "svchost.exe" {
		t.Errorf("procs = %+v", procs)
	}
}

func TestParseLinuxServiceList(t *testing.T) {
	output := "UNIT                      LOAD   ACTIVE SUB     DESCRIPTION\n" +
		"nginx.service             loaded active running A high performance web server\n" +
		"sshd.service              loaded active running OpenSSH server\n" +
		"not-a-service.mount       loaded active mounted Some mount\n"

	names, err := ParseServiceList(output, model.OsLinux)
	if err != nil {
		t.Fatalf("ParseServiceList: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("len(names) = %d, want 2, got %v", len(names), names)
	}
}

func TestParseWindowsServicesFromList(t *testing.T) {
	output := `[{"Name":"Spooler","State":"Running","StartMode":"Auto","PathName":"C:\\Windows\\System32\\spoolsv.exe","DisplayName":"Print Spooler","Description":"Loads files to memory for printing"}]`
	services, err := ParseWindowsServicesFromList(output)
	if err != nil {
		t.Fatalf("ParseWindowsServicesFromList: %v", err)
	}
	if len(services) != 1 {
		t.Fatalf("len(services) = %d, want 1", len(services))
	}
	svc := services[0]
	if svc.Name != "Spooler" || svc.State != "Running" {
		t.Errorf("service = %+v", svc)
	}
	if svc.ExecStart == nil || *svc.ExecStart != `C:\Windows\System32\spoolsv.exe` {
		t.Errorf("ExecStart = %v", svc.ExecStart)
	}
}

func TestParseLinuxServiceDetails(t *testing.T) {
	output := "Id=nginx.service\n" +
		"Description=A high performance web server\n" +
		"ActiveState=active\n" +
		"SubState=running\n" +
		"ExecStart=/usr/sbin/nginx -g daemon off;\n" +
		"WorkingDirectory=/etc/nginx\n" +
		"User=www-data\n" +
		"Group=www-data\n" +
		"MainPID=1234\n" +
		"FragmentPath=/lib/systemd/system/nginx.service\n"

	svc, err := ParseServiceDetails(output, model.OsLinux)
	if err != nil {
		t.Fatalf("ParseServiceDetails: %v", err)
	}
	if svc.Name != "nginx.service" {
		t.Errorf("Name = %q", svc.Name)
	}
	if svc.State != "active" {
		t.Errorf("State = %q", svc.State)
	}
	if svc.MainPID == nil || *svc.MainPID != 1234 {
		t.Errorf("MainPID = %v", svc.MainPID)
	}
	if svc.WorkingDirectory == nil || *svc.WorkingDirectory != "/etc/nginx" {
		t.Errorf("WorkingDirectory = %v", svc.WorkingDirectory)
	}
}

func TestParseSystemdUnit(t *testing.T) {
	content := "[Service]\n" +
		"ExecStart=/usr/bin/myapp --config=/etc/myapp.conf\n" +
		"WorkingDirectory=/opt/myapp\n" +
		"EnvironmentFile=-/etc/myapp/env\n" +
		"Environment=\"LOG_LEVEL=info\"\n"

	info := ParseSystemdUnit(content)
	if info.ExecStart == nil || *info.ExecStart != "/usr/bin/myapp --config=/etc/myapp.conf" {
		t.Errorf("ExecStart = %v", info.ExecStart)
	}
	if info.WorkingDirectory == nil || *info.WorkingDirectory != "/opt/myapp" {
		t.Errorf("WorkingDirectory = %v", info.WorkingDirectory)
	}
	if len(info.EnvironmentFiles) != 1 || info.EnvironmentFiles[0] != "/etc/myapp/env" {
		t.Errorf("EnvironmentFiles = %v", info.EnvironmentFiles)
	}
	if info.Environment["LOG_LEVEL"] != "info" {
		t.Errorf("Environment[LOG_LEVEL] = %q", info.Environment["LOG_LEVEL"])
	}
}

func TestParseLinuxPorts(t *testing.T) {
	output := "Netid State  Recv-Q Send-Q Local Address:Port Peer Address:Port\n" +
		`tcp   LISTEN 0      128          0.0.0.0:22         0.0.0.0:*     users:(("sshd",pid=734,fd=3))` + "\n"

	ports, err := ParsePorts(output, model.OsLinux)
	if err != nil {
		t.Fatalf("ParsePorts: %v", err)
	}
	if len(ports) != 1 {
		t.Fatalf("len(ports) = %d, want 1", len(ports))
	}
	p := ports[0]
	if p.LocalPort != 22 || p.Protocol != "tcp" {
		t.Errorf("port = %+v", p)
	}
	if p.PID == nil || *p.PID != 734 {
		t.Errorf("PID = %v", p.PID)
	}
	if p.ProcessName == nil || *p.ProcessName != "sshd" {
		t.Errorf("ProcessName = %v", p.ProcessName)
	}
}

func TestParseWindowsPorts(t *testing.T) {
	output := `[{"LocalAddress":"0.0.0.0","LocalPort":443,"OwningProcess":900,"State":"Listen"}]`
	ports, err := ParsePorts(output, model.OsWindows)
	if err != nil {
		t.Fatalf("ParsePorts: %v", err)
	}
	if len(ports) != 1 || ports[0].LocalPort != 443 {
		t.Errorf("ports = %+v", ports)
	}
	if ports[0].PID == nil || *ports[0].PID != 900 {
		t.Errorf("PID = %v", ports[0].PID)
	}
}

func TestParsePackagesDpkg(t *testing.T) {
	output := "Desired=Unknown/Install/Remove/Purge/Hold\n" +
		"ii  nginx        1.18.0-6ubuntu14  amd64  small, powerful, scalable web/proxy server\n" +
		"rc  oldpkg       0.1               amd64  removed but config remains\n"

	pkgs, err := ParsePackages(output, model.OsLinux, "dpkg -l")
	if err != nil {
		t.Fatalf("ParsePackages: %v", err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("len(pkgs) = %d, want 1 (only ii- entries)", len(pkgs))
	}
	if pkgs[0].Name != "nginx" || pkgs[0].Version != "1.18.0-6ubuntu14" {
		t.Errorf("pkg = %+v", pkgs[0])
	}
	if pkgs[0].Source != "dpkg" {
		t.Errorf("Source = %q, want dpkg", pkgs[0].Source)
	}
}

func TestParsePackagesRpm(t *testing.T) {
	output := "bash 5.1-6.fc35 x86_64\nopenssl 1.1.1 x86_64\n"
	pkgs, err := ParsePackages(output, model.OsLinux, "rpm -qa --queryformat ...")
	if err != nil {
		t.Fatalf("ParsePackages: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("len(pkgs) = %d, want 2", len(pkgs))
	}
	if pkgs[0].Source != "rpm" {
		t.Errorf("Source = %q, want rpm", pkgs[0].Source)
	}
}

func TestParsePackagesWindows(t *testing.T) {
	output := `[{"Name":"7-Zip","Version":"19.00"}]`
	pkgs, err := ParsePackages(output, model.OsWindows, "")
	if err != nil {
		t.Fatalf("ParsePackages: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "7-Zip" {
		t.Errorf("pkgs = %+v", pkgs)
	}
}

func TestParseScheduledTasksLinux(t *testing.T) {
	output := "backup.timer          Mon 2026-01-05 n/a\n"
	tasks, err := ParseScheduledTasks(output, model.OsLinux)
	if err != nil {
		t.Fatalf("ParseScheduledTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "backup.timer" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestParseScheduledTasksWindows(t *testing.T) {
	output := `[{"TaskName":"\\Microsoft\\Windows\\UpdateOrchestrator\\Schedule Scan","State":"Ready"}]`
	tasks, err := ParseScheduledTasks(output, model.OsWindows)
	if err != nil {
		t.Fatalf("ParseScheduledTasks: %v", err)
	}
	if len(tasks) != 1 || !tasks[0].Enabled {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestDecodeJSONArrayHandlesSingleObjectAndEmpty(t *testing.T) {
	var out []map[string]interface{}
	if err := decodeJSONArray(`{"a":1}`, &out); err != nil {
		t.Fatalf("decodeJSONArray: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}

	var empty []map[string]interface{}
	if err := decodeJSONArray("   ", &empty); err != nil {
		t.Fatalf("decodeJSONArray on blank input: %v", err)
	}
	if empty != nil {
		t.Errorf("expected nil slice for blank input, got %v", empty)
	}
}
