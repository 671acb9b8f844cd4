// Package catalogue is the single source of truth for every command the
// collector is allowed to run on a target host. Nothing outside this
// package constructs a shell command string for execution.
package catalogue

import (
	"fmt"
	"strings"
)

// CommandSet exposes the allow-listed commands for one OS family.
type CommandSet interface {
	HostnameCmd() string
	OSVersionCmd() (string, bool)
	KernelVersionCmd() (string, bool)
	ArchitectureCmd() (string, bool)
	ProcessCmds() []string
	ServiceListCmd() string
	ServiceShowCmd(name string) (string, bool)
	ServiceCatCmd(name string) (string, bool)
	PortsCmd() string
	PackageCmds() []string
	ScheduledTaskCmds() []string
	ReadFileCmd(path string) (string, bool)
	JournalCmd(unit, since string) (string, bool)
}

// LinuxCommands is the allow-listed command set for Linux targets,
// built from standard, universally-present tools (no distro-specific
// package required beyond systemd/iproute2/procps).
type LinuxCommands struct{}

func NewLinuxCommands() LinuxCommands { return LinuxCommands{} }

func (LinuxCommands) HostnameCmd() string { return "hostname" }

func (LinuxCommands) OSVersionCmd() (string, bool) {
	return "cat /etc/os-release 2>/dev/null || cat /etc/redhat-release 2>/dev/null || cat /etc/debian_version 2>/dev/null", true
}

func (LinuxCommands) KernelVersionCmd() (string, bool) { return "uname -r", true }

func (LinuxCommands) ArchitectureCmd() (string, bool) { return "uname -m", true }

func (LinuxCommands) ProcessCmds() []string {
	return []string{
		"ps auxww",
		"ps -eo pid,ppid,user,lstart,etime,args --sort=lstart",
	}
}

func (LinuxCommands) ServiceListCmd() string {
	return "systemctl list-units --type=service --all --no-pager --no-legend"
}

func (LinuxCommands) ServiceShowCmd(name string) (string, bool) {
	if !IsSafeServiceName(name) {
		return "", false
	}
	return fmt.Sprintf("systemctl show %s --no-pager", name), true
}

func (LinuxCommands) ServiceCatCmd(name string) (string, bool) {
	if !IsSafeServiceName(name) {
		return "", false
	}
	return fmt.Sprintf("systemctl cat %s 2>/dev/null", name), true
}

func (LinuxCommands) PortsCmd() string { return "ss -lntup" }

func (LinuxCommands) PackageCmds() []string {
	return []string{
		"dpkg -l 2>/dev/null",
		`rpm -qa --queryformat '%{NAME} %{VERSION}-%{RELEASE} %{ARCH}\n' 2>/dev/null`,
	}
}

func (LinuxCommands) ScheduledTaskCmds() []string {
	return []string{
		"systemctl list-timers --all --no-pager --no-legend",
		"cat /etc/crontab 2>/dev/null",
		"ls -la /etc/cron.d/ 2>/dev/null",
	}
}

var linuxReadFilePrefixes = []string{"/etc/", "/opt/", "/srv/", "/var/log/", "/home/"}

func (LinuxCommands) ReadFileCmd(path string) (string, bool) {
	if !IsSafePath(path) {
		return "", false
	}
	if !hasAnyPrefix(path, linuxReadFilePrefixes) {
		return "", false
	}
	return fmt.Sprintf("cat '%s' 2>/dev/null | head -c 1048576", path), true
}

func (LinuxCommands) JournalCmd(unit, since string) (string, bool) {
	if !IsSafeServiceName(unit) {
		return "", false
	}
	return fmt.Sprintf("journalctl --since '%s' -u %s --no-pager | tail -n 2000", since, unit), true
}

// WindowsCommands is the allow-listed command set for Windows targets,
// driven entirely through PowerShell's CIM cmdlets and ConvertTo-Json
// so the collector can parse structured output rather than free text.
type WindowsCommands struct{}

func NewWindowsCommands() WindowsCommands { return WindowsCommands{} }

func (WindowsCommands) HostnameCmd() string { return "hostname" }

func (WindowsCommands) OSVersionCmd() (string, bool) {
	return "(Get-CimInstance Win32_OperatingSystem).Caption", true
}

func (WindowsCommands) KernelVersionCmd() (string, bool) {
	return "(Get-CimInstance Win32_OperatingSystem).Version", true
}

func (WindowsCommands) ArchitectureCmd() (string, bool) {
	return "(Get-CimInstance Win32_OperatingSystem).OSArchitecture", true
}

func (WindowsCommands) ProcessCmds() []string {
	return []string{
		"Get-CimInstance Win32_Process | Select-Object ProcessId,ParentProcessId,Name,CommandLine,CreationDate | ConvertTo-Json -Depth 3",
	}
}

func (WindowsCommands) ServiceListCmd() string {
	return "Get-CimInstance Win32_Service | Select-Object Name,State,StartMode,PathName,DisplayName,Description | ConvertTo-Json -Depth 3"
}

func (WindowsCommands) ServiceShowCmd(name string) (string, bool) {
	if !IsSafeServiceName(name) {
		return "", false
	}
	return fmt.Sprintf(`Get-CimInstance Win32_Service -Filter "Name='%s'" | Select-Object * | ConvertTo-Json -Depth 3`, name), true
}

func (WindowsCommands) ServiceCatCmd(string) (string, bool) { return "", false } // no unit files on Windows

func (WindowsCommands) PortsCmd() string {
	return "Get-NetTCPConnection | Where-Object {$_.State -eq 'Listen'} | Select-Object LocalAddress,LocalPort,OwningProcess,State | ConvertTo-Json -Depth 3"
}

func (WindowsCommands) PackageCmds() []string {
	return []string{"Get-Package | Select-Object Name,Version | ConvertTo-Json -Depth 3"}
}

func (WindowsCommands) ScheduledTaskCmds() []string {
	return []string{"Get-ScheduledTask | Select-Object TaskName,State,TaskPath | ConvertTo-Json -Depth 3"}
}

var windowsReadFilePrefixes = []string{`C:\ProgramData\`, `C:\Program Files\`, `C:\inetpub\`}

func (WindowsCommands) ReadFileCmd(path string) (string, bool) {
	if !IsSafePath(path) {
		return "", false
	}
	normalized := strings.ReplaceAll(path, "/", `\`)
	if !hasAnyPrefix(normalized, windowsReadFilePrefixes) {
		return "", false
	}
	return fmt.Sprintf("Get-Content -Path '%s' -TotalCount 10000 -ErrorAction SilentlyContinue", path), true
}

// JournalCmd ignores since: the Windows Service Control Manager log query
// always uses a fixed one-hour window regardless of the requested horizon.
func (WindowsCommands) JournalCmd(_, _ string) (string, bool) {
	return `Get-WinEvent -FilterHashtable @{LogName='System'; ProviderName='Service Control Manager'; StartTime=(Get-Date).AddHours(-1)} -MaxEvents 100 -ErrorAction SilentlyContinue | Select-Object TimeCreated,Message | ConvertTo-Json -Depth 3`, true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// IsSafeServiceName allows only characters systemd/CIM accept in a unit
// or service name, blocking shell metacharacters from reaching the
// command line we build around it.
func IsSafeServiceName(name string) bool {
	if name == "" || len(name) > 256 {
		return false
	}
	for _, c := range name {
		if !(isAlnum(c) || c == '-' || c == '_' || c == '.' || c == '@') {
			return false
		}
	}
	return true
}

// IsSafePath rejects shell metacharacters and path traversal so a path
// harvested from the target (e.g. a service's WorkingDirectory) cannot
// be used to inject additional commands.
func IsSafePath(path string) bool {
	if path == "" || len(path) > 1024 {
		return false
	}
	if strings.ContainsAny(path, ";|&$`\n\r") {
		return false
	}
	if strings.Contains(path, "..") {
		return false
	}
	return true
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// For returns the CommandSet for the named OS family.
func For(os string) (CommandSet, bool) {
	switch strings.ToLower(os) {
	case "linux":
		return NewLinuxCommands(), true
	case "windows":
		return NewWindowsCommands(), true
	default:
		return nil, false
	}
}
