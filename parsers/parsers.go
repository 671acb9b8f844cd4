// Package parsers turns raw command output into the structured types in
// package model. Each function is grounded directly on the shape of the
// command that produced its input (see package catalogue).
package parsers

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/hostsurvey/hostsurvey/model"
	"github.com/hostsurvey/hostsurvey/util"
)

// ParseProcesses dispatches to the OS-specific process list parser.
func ParseProcesses(output string, os model.OsType) ([]model.ProcessInfo, error) {
	if os.IsWindows() {
		return parseWindowsProcesses(output)
	}
	return parseLinuxProcesses(output), nil
}

// parseLinuxProcesses parses "ps auxww" output: USER PID %CPU %MEM VSZ
// RSS TTY STAT START TIME COMMAND...
func parseLinuxProcesses(output string) []model.ProcessInfo {
	var procs []model.ProcessInfo
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // header
	}
	for _, line := range lines {
		parts := strings.Fields(line)
		if len(parts) < 11 {
			continue
		}
		pid, _ := strconv.ParseUint(parts[1], 10, 32)
		cpu, _ := strconv.ParseFloat(parts[2], 32)
		mem, _ := strconv.ParseFloat(parts[3], 32)
		fullCmdline := strings.Join(parts[10:], " ")
		command := parts[10]
		var args []string
		if len(parts) > 11 {
			args = parts[11:]
		}
		cpu32, mem32 := float32(cpu), float32(mem)
		procs = append(procs, model.ProcessInfo{
			PID:           uint32(pid),
			User:          parts[0],
			Command:       command,
			Args:          args,
			FullCmdline:   fullCmdline,
			CPUPercent:    &cpu32,
			MemoryPercent: &mem32,
		})
	}
	return procs
}

func parseWindowsProcesses(output string) ([]model.ProcessInfo, error) {
	var items []map[string]interface{}
	if err := decodeJSONArray(output, &items); err != nil {
		return nil, nil //nolint: malformed PowerShell output yields no processes, not a parser failure
	}
	var procs []model.ProcessInfo
	for _, item := range items {
		pid, _ := item["ProcessId"].(float64)
		ppid, _ := item["ParentProcessId"].(float64)
		name, _ := item["Name"].(string)
		cmdline, _ := item["CommandLine"].(string)
		procs = append(procs, model.ProcessInfo{
			PID:         uint32(pid),
			PPID:        uint32(ppid),
			Command:     name,
			FullCmdline: cmdline,
		})
	}
	return procs, nil
}

// ParseServiceList returns service/unit names from a listing command,
// used on Linux where names must then be queried individually.
func ParseServiceList(output string, os model.OsType) ([]string, error) {
	if os.IsWindows() {
		return parseWindowsServiceList(output)
	}
	return parseLinuxServiceList(output), nil
}

func parseLinuxServiceList(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.HasSuffix(fields[0], ".service") {
			names = append(names, fields[0])
		}
	}
	return names
}

func parseWindowsServiceList(output string) ([]string, error) {
	var items []map[string]interface{}
	if err := decodeJSONArray(output, &items); err != nil {
		return nil, nil
	}
	var names []string
	for _, item := range items {
		if name, ok := item["Name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// ParseWindowsServicesFromList parses the single combined
// Get-CimInstance Win32_Service query into full ServiceInfo records,
// skipping the per-service detail round trips Linux needs.
func ParseWindowsServicesFromList(output string) ([]model.ServiceInfo, error) {
	var items []map[string]interface{}
	if err := decodeJSONArray(output, &items); err != nil {
		return nil, nil
	}
	var services []model.ServiceInfo
	for _, item := range items {
		name, _ := item["Name"].(string)
		if name == "" {
			continue
		}
		svc := model.ServiceInfo{
			Name:        name,
			State:       strOrEmpty(item["State"]),
			Environment: map[string]string{},
		}
		if v, ok := item["DisplayName"].(string); ok {
			svc.DisplayName = model.StrPtr(v)
		}
		if v, ok := item["Description"].(string); ok {
			svc.Description = model.StrPtr(v)
		}
		if v, ok := item["StartMode"].(string); ok {
			svc.StartMode = model.StrPtr(v)
		}
		if v, ok := item["PathName"].(string); ok {
			svc.ExecStart = model.StrPtr(v)
		}
		services = append(services, svc)
	}
	return services, nil
}

// ParseServiceDetails dispatches to the OS-specific service detail
// parser ("systemctl show" key=value pairs on Linux, CIM JSON on
// Windows).
func ParseServiceDetails(output string, os model.OsType) (model.ServiceInfo, error) {
	if os.IsWindows() {
		return parseWindowsServiceDetails(output)
	}
	return parseLinuxServiceDetails(output), nil
}

func parseLinuxServiceDetails(output string) model.ServiceInfo {
	fields := util.ParseEqualsLines(strings.Split(output, "\n"))
	svc := model.ServiceInfo{Environment: map[string]string{}}

	svc.Name = fields["Id"]
	svc.State = fields["ActiveState"]
	if v := fields["Description"]; v != "" {
		svc.Description = model.StrPtr(v)
	}
	if v := fields["SubState"]; v != "" {
		svc.SubState = model.StrPtr(v)
	}
	if v := fields["ExecStart"]; v != "" {
		svc.ExecStart = model.StrPtr(v)
	}
	if v := fields["WorkingDirectory"]; v != "" {
		svc.WorkingDirectory = model.StrPtr(v)
	}
	if v := fields["User"]; v != "" {
		svc.User = model.StrPtr(v)
	}
	if v := fields["Group"]; v != "" {
		svc.Group = model.StrPtr(v)
	}
	if v := fields["FragmentPath"]; v != "" {
		svc.UnitFilePath = model.StrPtr(v)
	}
	if pid := util.ParseUint64(fields["MainPID"]); pid > 0 {
		p := uint32(pid)
		svc.MainPID = &p
	}

	return svc
}

func parseWindowsServiceDetails(output string) (model.ServiceInfo, error) {
	var item map[string]interface{}
	if err := json.Unmarshal([]byte(output), &item); err != nil {
		return model.ServiceInfo{}, err
	}
	svc := model.ServiceInfo{
		Name:        strOrEmpty(item["Name"]),
		State:       strOrEmpty(item["State"]),
		Environment: map[string]string{},
	}
	if v, ok := item["DisplayName"].(string); ok {
		svc.DisplayName = model.StrPtr(v)
	}
	if v, ok := item["Description"].(string); ok {
		svc.Description = model.StrPtr(v)
	}
	if v, ok := item["StartMode"].(string); ok {
		svc.StartMode = model.StrPtr(v)
	}
	if v, ok := item["PathName"].(string); ok {
		svc.ExecStart = model.StrPtr(v)
	}
	return svc, nil
}

// UnitFileInfo is what ParseSystemdUnit extracts from a unit file body.
type UnitFileInfo struct {
	ExecStart        *string
	WorkingDirectory *string
	EnvironmentFiles []string
	Environment      map[string]string
}

// ParseSystemdUnit extracts ExecStart/WorkingDirectory/EnvironmentFile/
// Environment directives from "systemctl cat" output.
func ParseSystemdUnit(content string) UnitFileInfo {
	info := UnitFileInfo{Environment: map[string]string{}}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ExecStart="):
			info.ExecStart = model.StrPtr(strings.TrimPrefix(line, "ExecStart="))
		case strings.HasPrefix(line, "WorkingDirectory="):
			info.WorkingDirectory = model.StrPtr(strings.TrimPrefix(line, "WorkingDirectory="))
		case strings.HasPrefix(line, "EnvironmentFile="):
			path := strings.TrimPrefix(strings.TrimPrefix(line, "EnvironmentFile="), "-")
			info.EnvironmentFiles = append(info.EnvironmentFiles, path)
		case strings.HasPrefix(line, "Environment="):
			env := strings.Trim(strings.TrimPrefix(line, "Environment="), `"`)
			if key, value, ok := strings.Cut(env, "="); ok {
				info.Environment[key] = strings.Trim(value, `"`)
			}
		}
	}
	return info
}

var linuxPortLine = regexp.MustCompile(
	`(?P<proto>tcp|udp)\s+(?P<state>\w+)\s+\d+\s+\d+\s+` +
		`(?P<local>\S+):(?P<port>\d+)\s+\S+:\S+\s*` +
		`(?:users:\(\("(?P<name>[^"]+)",pid=(?P<pid>\d+))?`,
)

// ParsePorts dispatches to the OS-specific listener parser.
func ParsePorts(output string, os model.OsType) ([]model.PortInfo, error) {
	if os.IsWindows() {
		return parseWindowsPorts(output)
	}
	return parseLinuxPorts(output), nil
}

// parseLinuxPorts parses "ss -lntup" output.
func parseLinuxPorts(output string) []model.PortInfo {
	var ports []model.PortInfo
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	names := linuxPortLine.SubexpNames()
	for _, line := range lines {
		m := linuxPortLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		groups := map[string]string{}
		for i, name := range names {
			if name != "" && i < len(m) {
				groups[name] = m[i]
			}
		}
		port, err := strconv.ParseUint(groups["port"], 10, 16)
		if err != nil || port == 0 {
			continue
		}
		pi := model.PortInfo{
			Protocol:     groups["proto"],
			LocalAddress: groups["local"],
			LocalPort:    uint16(port),
			State:        groups["state"],
		}
		if pi.State == "" {
			pi.State = "LISTEN"
		}
		if pidStr := groups["pid"]; pidStr != "" {
			if pid, err := strconv.ParseUint(pidStr, 10, 32); err == nil {
				p := uint32(pid)
				pi.PID = &p
			}
		}
		if name := groups["name"]; name != "" {
			pi.ProcessName = model.StrPtr(name)
		}
		ports = append(ports, pi)
	}
	return ports
}

func parseWindowsPorts(output string) ([]model.PortInfo, error) {
	var items []map[string]interface{}
	if err := decodeJSONArray(output, &items); err != nil {
		return nil, nil
	}
	var ports []model.PortInfo
	for _, item := range items {
		port, _ := item["LocalPort"].(float64)
		pi := model.PortInfo{
			Protocol:     "tcp",
			LocalAddress: strOrEmpty(item["LocalAddress"]),
			LocalPort:    uint16(port),
			State:        strOrEmpty(item["State"]),
		}
		if pid, ok := item["OwningProcess"].(float64); ok {
			p := uint32(pid)
			pi.PID = &p
		}
		ports = append(ports, pi)
	}
	return ports, nil
}

// ParsePackages dispatches on OS and (for Linux) on which package
// manager produced the output.
func ParsePackages(output string, os model.OsType, command string) ([]model.Package, error) {
	if os.IsWindows() {
		return parseWindowsPackages(output)
	}
	if strings.Contains(command, "dpkg") {
		return parseDpkgPackages(output), nil
	}
	return parseRpmPackages(output), nil
}

func parseDpkgPackages(output string) []model.Package {
	var pkgs []model.Package
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "ii") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}
		pkg := model.Package{Name: parts[1], Version: parts[2], Source: "dpkg"}
		if len(parts) > 3 {
			pkg.Architecture = model.StrPtr(parts[3])
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

func parseRpmPackages(output string) []model.Package {
	var pkgs []model.Package
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		pkg := model.Package{Name: parts[0], Version: parts[1], Source: "rpm"}
		if len(parts) > 2 {
			pkg.Architecture = model.StrPtr(parts[2])
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

func parseWindowsPackages(output string) ([]model.Package, error) {
	var items []map[string]interface{}
	if err := decodeJSONArray(output, &items); err != nil {
		return nil, nil
	}
	var pkgs []model.Package
	for _, item := range items {
		pkgs = append(pkgs, model.Package{
			Name:    strOrEmpty(item["Name"]),
			Version: strOrEmpty(item["Version"]),
			Source:  "windows",
		})
	}
	return pkgs, nil
}

// ParseScheduledTasks dispatches to the OS-specific scheduled task
// parser.
func ParseScheduledTasks(output string, os model.OsType) ([]model.ScheduledTask, error) {
	if os.IsWindows() {
		return parseWindowsScheduledTasks(output)
	}
	return parseLinuxScheduledTasks(output), nil
}

func parseLinuxScheduledTasks(output string) []model.ScheduledTask {
	var tasks []model.ScheduledTask
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		task := model.ScheduledTask{
			Name:     parts[0],
			TaskType: "systemd-timer",
			Schedule: model.StrPtr(parts[1]),
			Enabled:  true,
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func parseWindowsScheduledTasks(output string) ([]model.ScheduledTask, error) {
	var items []map[string]interface{}
	if err := decodeJSONArray(output, &items); err != nil {
		return nil, nil
	}
	var tasks []model.ScheduledTask
	for _, item := range items {
		state, _ := item["State"].(string)
		tasks = append(tasks, model.ScheduledTask{
			Name:     strOrEmpty(item["TaskName"]),
			TaskType: "windows-task",
			Enabled:  state == "Ready",
		})
	}
	return tasks, nil
}

// decodeJSONArray unmarshals a PowerShell ConvertTo-Json result, which
// renders as a bare object (not an array) when exactly one item
// matched; this normalizes both shapes to a slice.
func decodeJSONArray(output string, out *[]map[string]interface{}) error {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal([]byte(trimmed), out)
	}
	var single map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
		return err
	}
	*out = []map[string]interface{}{single}
	return nil
}

func strOrEmpty(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
