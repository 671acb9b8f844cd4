// Package collector runs the allow-listed command catalogue against one
// target and assembles the result into a model.Bundle: a manifest, an
// audit trail of every command run, and the redacted evidence backing
// both.
package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hostsurvey/hostsurvey/catalogue"
	"github.com/hostsurvey/hostsurvey/executor"
	"github.com/hostsurvey/hostsurvey/model"
	"github.com/hostsurvey/hostsurvey/parsers"
	"github.com/hostsurvey/hostsurvey/redact"
)

// CollectionMode distinguishes an audit of a remote host reached over
// SSH/WinRM from a one-shot local self-audit used for tests and demos.
type CollectionMode string

const (
	ModeRemote         CollectionMode = "remote"
	ModeLocalEphemeral CollectionMode = "local_ephemeral"
)

// ProgressEvent is emitted on every stage transition so a caller (CLI
// progress bar, TUI) can render collection progress without polling
// the bundle under construction.
type ProgressEvent struct {
	Stage   string
	Message string
}

// Config configures one Collect run.
type Config struct {
	Target  string
	OS      model.OsType
	Mode    CollectionMode
	Timeout time.Duration
}

// Collector runs the 8-stage collection pipeline against one target
// through an already-connected Executor.
type Collector struct {
	cfg         Config
	exec        executor.Executor
	cmds        catalogue.CommandSet
	redactor    *redact.Redactor
	logger      *zap.Logger
	onProgress  func(ProgressEvent)
	evidence    map[string]*model.Evidence
	evidenceSeq int
	audit       *model.AuditLog
}

// New builds a Collector for cfg.OS, failing if no command catalogue
// exists for that OS family.
func New(cfg Config, exec executor.Executor, redactor *redact.Redactor, logger *zap.Logger, onProgress func(ProgressEvent)) (*Collector, error) {
	cmds, ok := catalogue.For(cfg.OS.String())
	if !ok {
		return nil, model.NewKindError(model.ErrKindUnsupportedOS, fmt.Sprintf("unsupported OS: %s", cfg.OS), nil)
	}
	if redactor == nil {
		redactor = redact.New()
	}
	return &Collector{
		cfg:        cfg,
		exec:       exec,
		cmds:       cmds,
		redactor:   redactor,
		logger:     logger,
		onProgress: onProgress,
		evidence:   make(map[string]*model.Evidence),
		audit:      model.NewAuditLog(),
	}, nil
}

func (c *Collector) progress(stage, msg string) {
	if c.onProgress != nil {
		c.onProgress(ProgressEvent{Stage: stage, Message: msg})
	}
	if c.logger != nil {
		c.logger.Debug("collection stage", zap.String("stage", stage), zap.String("message", msg))
	}
}

// Collect runs all 8 collection stages in order and returns the
// completed bundle. Individual stage failures are recorded as
// recoverable CollectionErrors in the manifest rather than aborting
// the whole run; only a missing command catalogue up front is fatal.
func (c *Collector) Collect(ctx context.Context) (*model.Bundle, error) {
	collectionID := uuid.NewString()
	now := time.Now().UTC()
	manifest := model.NewManifest(collectionID, now)
	manifest.CollectionMode = string(c.cfg.Mode)

	var errs []model.CollectionError

	c.progress("system_info", "collecting system information")
	sysInfo, sysErrs := c.collectSystemInfo(ctx)
	manifest.System = sysInfo
	errs = append(errs, sysErrs...)

	c.progress("processes", "collecting process list")
	procs, err := c.collectProcesses(ctx)
	if err != nil {
		errs = append(errs, c.recoverable("processes", err))
	}
	manifest.Processes = procs

	c.progress("services", "collecting services")
	svcs, err := c.collectServices(ctx)
	if err != nil {
		errs = append(errs, c.recoverable("services", err))
	}
	manifest.Services = svcs

	c.progress("ports", "collecting listening ports")
	ports, err := c.collectPorts(ctx)
	if err != nil {
		errs = append(errs, c.recoverable("ports", err))
	}
	manifest.Ports = ports

	c.progress("packages", "collecting installed packages")
	pkgs, err := c.collectPackages(ctx)
	if err != nil {
		errs = append(errs, c.recoverable("packages", err))
	}
	manifest.Packages = pkgs

	c.progress("scheduled_tasks", "collecting scheduled tasks")
	tasks, err := c.collectScheduledTasks(ctx)
	if err != nil {
		errs = append(errs, c.recoverable("scheduled_tasks", err))
	}
	manifest.ScheduledTasks = tasks

	c.progress("config_files", "collecting configuration files")
	configFiles, envFiles := c.collectConfigFiles(ctx, svcs)
	manifest.ConfigFiles = configFiles
	manifest.EnvironmentFiles = envFiles

	c.progress("logs", "collecting service logs")
	manifest.LogFiles = c.collectLogs(ctx, svcs)

	manifest.Errors = errs
	completed := time.Now().UTC()
	manifest.CompletedAt = &completed

	checksums := make(map[string]string, len(c.evidence))
	for _, ev := range c.evidence {
		checksums[ev.BundlePath] = ev.ContentHash
	}

	return &model.Bundle{
		Manifest:  manifest,
		Audit:     c.audit.Entries(),
		Evidence:  c.evidence,
		Checksums: checksums,
	}, nil
}

func (c *Collector) recoverable(phase string, err error) model.CollectionError {
	return model.CollectionError{Phase: phase, Error: err.Error(), Timestamp: time.Now().UTC(), Recoverable: true}
}

func (c *Collector) nextEvidenceID() string {
	c.evidenceSeq++
	return fmt.Sprintf("ev-%04d", c.evidenceSeq)
}

// run executes command, redacts its combined output, records an audit
// entry and an Evidence blob for it, and returns the redacted stdout
// along with the evidence_ref it was stored under (its bundle path,
// "evidence/<id>.txt") so callers can stamp it directly onto a
// record's EvidenceRef field.
func (c *Collector) run(ctx context.Context, command, category string, evType model.EvidenceType) (string, string, error) {
	started := time.Now().UTC()
	res, execErr := c.exec.Execute(ctx, command)
	completed := time.Now().UTC()

	var errMsg *string
	if execErr != nil {
		msg := execErr.Error()
		errMsg = &msg
	}

	redStdout := c.redactor.Redact(res.Stdout)
	redStderr := c.redactor.Redact(res.Stderr)

	id := c.nextEvidenceID()
	bundlePath := fmt.Sprintf("evidence/%s.txt", id)
	content := []byte(redStdout.Content)
	if strings.TrimSpace(redStderr.Content) != "" {
		content = []byte(redStdout.Content + "\n--- stderr ---\n" + redStderr.Content)
	}

	ev := model.NewCommandOutputEvidence(id, command, content, bundlePath)
	ev.EvidenceType = evType
	if redStdout.Stats.Total()+redStderr.Stats.Total() > 0 {
		ev.MarkRedacted()
	}
	c.evidence[bundlePath] = ev

	entry := model.NewAuditEntry(command, category, started, completed, res.ExitCode,
		uint64(len(res.Stdout)), uint64(len(res.Stderr)), bundlePath, errMsg)
	c.audit.Add(entry)

	if execErr != nil {
		return redStdout.Content, bundlePath, execErr
	}
	return redStdout.Content, bundlePath, nil
}

func (c *Collector) collectSystemInfo(ctx context.Context) (model.SystemInfo, []model.CollectionError) {
	var errs []model.CollectionError
	info := model.SystemInfo{OsType: c.cfg.OS.String()}

	hostname, _, err := c.run(ctx, c.cmds.HostnameCmd(), "system_info", model.EvidenceCommandOutput)
	if err != nil {
		errs = append(errs, c.recoverable("system_info", err))
	}
	info.Hostname = strings.TrimSpace(hostname)

	if cmd, ok := c.cmds.OSVersionCmd(); ok {
		out, _, err := c.run(ctx, cmd, "system_info", model.EvidenceCommandOutput)
		if err != nil {
			errs = append(errs, c.recoverable("system_info", err))
		} else {
			info.OsVersion = model.StrPtr(extractOSVersion(out, c.cfg.OS))
		}
	}

	if cmd, ok := c.cmds.KernelVersionCmd(); ok {
		out, _, err := c.run(ctx, cmd, "system_info", model.EvidenceCommandOutput)
		if err == nil {
			info.KernelVersion = model.StrPtr(strings.TrimSpace(out))
		}
	}

	if cmd, ok := c.cmds.ArchitectureCmd(); ok {
		out, _, err := c.run(ctx, cmd, "system_info", model.EvidenceCommandOutput)
		if err == nil {
			info.Architecture = model.StrPtr(strings.TrimSpace(out))
		}
	}

	return info, errs
}

func extractOSVersion(output string, os model.OsType) string {
	if os.IsWindows() {
		return strings.TrimSpace(output)
	}
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), `"`)
		}
	}
	return strings.TrimSpace(firstLine(output))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (c *Collector) collectProcesses(ctx context.Context) ([]model.ProcessInfo, error) {
	cmds := c.cmds.ProcessCmds()
	if len(cmds) == 0 {
		return nil, nil
	}
	out, evRef, err := c.run(ctx, cmds[0], "processes", model.EvidenceCommandOutput)
	if err != nil {
		return nil, err
	}
	procs, err := parsers.ParseProcesses(out, c.cfg.OS)
	if err != nil {
		return nil, err
	}
	for i := range procs {
		procs[i].EvidenceRef = model.StrPtr(evRef)
	}
	return procs, nil
}

// collectServices mirrors the asymmetry between the two OS families:
// Windows returns every service's full detail in a single CIM query,
// while Linux requires a list-then-describe round trip per unit.
func (c *Collector) collectServices(ctx context.Context) ([]model.ServiceInfo, error) {
	if c.cfg.OS.IsWindows() {
		out, _, err := c.run(ctx, c.cmds.ServiceListCmd(), "services", model.EvidenceCommandOutput)
		if err != nil {
			return nil, err
		}
		return parsers.ParseWindowsServicesFromList(out)
	}

	listOut, _, err := c.run(ctx, c.cmds.ServiceListCmd(), "services", model.EvidenceCommandOutput)
	if err != nil {
		return nil, err
	}
	names, err := parsers.ParseServiceList(listOut, c.cfg.OS)
	if err != nil {
		return nil, err
	}

	var services []model.ServiceInfo
	for _, name := range names {
		showCmd, ok := c.cmds.ServiceShowCmd(name)
		if !ok {
			continue
		}
		showOut, showRef, err := c.run(ctx, showCmd, "services", model.EvidenceCommandOutput)
		if err != nil {
			continue
		}
		svc, err := parsers.ParseServiceDetails(showOut, c.cfg.OS)
		if err != nil {
			continue
		}
		svc.EvidenceRef = model.StrPtr(showRef)

		if catCmd, ok := c.cmds.ServiceCatCmd(name); ok {
			catOut, _, err := c.run(ctx, catCmd, "services", model.EvidenceUnitFile)
			if err == nil {
				unit := parsers.ParseSystemdUnit(catOut)
				if unit.WorkingDirectory != nil {
					svc.WorkingDirectory = unit.WorkingDirectory
				}
				svc.EnvironmentFiles = unit.EnvironmentFiles
				if len(unit.Environment) > 0 {
					svc.Environment = unit.Environment
				}
			}
		}

		services = append(services, svc)
	}
	return services, nil
}

func (c *Collector) collectPorts(ctx context.Context) ([]model.PortInfo, error) {
	out, evRef, err := c.run(ctx, c.cmds.PortsCmd(), "ports", model.EvidenceCommandOutput)
	if err != nil {
		return nil, err
	}
	ports, err := parsers.ParsePorts(out, c.cfg.OS)
	if err != nil {
		return nil, err
	}
	for i := range ports {
		ports[i].EvidenceRef = model.StrPtr(evRef)
	}
	return ports, nil
}

func (c *Collector) collectPackages(ctx context.Context) ([]model.Package, error) {
	var all []model.Package
	for _, cmd := range c.cmds.PackageCmds() {
		out, _, err := c.run(ctx, cmd, "packages", model.EvidenceCommandOutput)
		if err != nil {
			continue
		}
		pkgs, err := parsers.ParsePackages(out, c.cfg.OS, cmd)
		if err != nil {
			continue
		}
		all = append(all, pkgs...)
	}
	return all, nil
}

func (c *Collector) collectScheduledTasks(ctx context.Context) ([]model.ScheduledTask, error) {
	var all []model.ScheduledTask
	for _, cmd := range c.cmds.ScheduledTaskCmds() {
		out, evRef, err := c.run(ctx, cmd, "scheduled_tasks", model.EvidenceCommandOutput)
		if err != nil {
			continue
		}
		tasks, err := parsers.ParseScheduledTasks(out, c.cfg.OS)
		if err != nil {
			continue
		}
		for i := range tasks {
			tasks[i].EvidenceRef = model.StrPtr(evRef)
		}
		all = append(all, tasks...)
	}
	return all, nil
}

var linuxWellKnownConfigs = []string{"/etc/os-release", "/etc/hosts", "/etc/resolv.conf"}

// collectConfigFiles reads a small set of well-known configuration
// paths, plus every EnvironmentFile referenced by a collected service's
// unit file. Windows carries no well-known config set of its own here:
// service PathName and config discovery is covered by the services
// stage's single CIM query.
func (c *Collector) collectConfigFiles(ctx context.Context, services []model.ServiceInfo) ([]model.FileInfo, []model.EnvironmentFile) {
	var configFiles []model.FileInfo
	var envFiles []model.EnvironmentFile

	if !c.cfg.OS.IsWindows() {
		for _, path := range linuxWellKnownConfigs {
			if fi, ok := c.readConfigFile(ctx, path); ok {
				configFiles = append(configFiles, fi)
			}
		}
	}

	seen := map[string]bool{}
	for _, svc := range services {
		for _, path := range svc.EnvironmentFiles {
			if seen[path] {
				continue
			}
			seen[path] = true
			if ef, ok := c.readEnvironmentFile(ctx, path); ok {
				envFiles = append(envFiles, ef)
			}
		}
	}

	return configFiles, envFiles
}

func (c *Collector) readConfigFile(ctx context.Context, path string) (model.FileInfo, bool) {
	cmd, ok := c.cmds.ReadFileCmd(path)
	if !ok {
		return model.FileInfo{}, false
	}
	_, id, err := c.run(ctx, cmd, "config_files", model.EvidenceConfigFile)
	if err != nil {
		return model.FileInfo{}, false
	}
	ev := c.evidence[id]
	if ev.SizeBytes == 0 {
		return model.FileInfo{}, false
	}
	return model.FileInfo{
		Path:            path,
		SizeBytes:       ev.SizeBytes,
		ContentHash:     model.StrPtr(ev.ContentHash),
		AttachmentRef:   model.StrPtr(id),
		DiscoveryMethod: "well_known_path",
	}, true
}

// readEnvironmentFile records only variable NAMES, never values: the
// values belong to the redacted evidence blob, not the manifest.
func (c *Collector) readEnvironmentFile(ctx context.Context, path string) (model.EnvironmentFile, bool) {
	cmd, ok := c.cmds.ReadFileCmd(path)
	if !ok {
		return model.EnvironmentFile{}, false
	}
	out, id, err := c.run(ctx, cmd, "config_files", model.EvidenceEnvFile)
	if err != nil {
		return model.EnvironmentFile{}, false
	}
	return model.EnvironmentFile{
		Path:          path,
		VariableNames: environmentFileVariableNames(out),
		EvidenceRef:   model.StrPtr(id),
	}, true
}

func environmentFileVariableNames(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, _, ok := strings.Cut(line, "="); ok {
			names = append(names, key)
		}
	}
	return names
}

// collectLogs pulls a one-hour journal window per active service. Only
// running services are queried, since a stopped unit's recent journal
// is rarely relevant to understanding what the host currently runs.
func (c *Collector) collectLogs(ctx context.Context, services []model.ServiceInfo) []model.FileInfo {
	var logFiles []model.FileInfo
	const since = "1 hour ago"
	for _, svc := range services {
		if svc.State != "active" && svc.State != "running" {
			continue
		}
		cmd, ok := c.cmds.JournalCmd(svc.Name, since)
		if !ok {
			continue
		}
		out, id, err := c.run(ctx, cmd, "logs", model.EvidenceLogSnippet)
		if err != nil || strings.TrimSpace(out) == "" {
			continue
		}
		logFiles = append(logFiles, model.FileInfo{
			Path:            fmt.Sprintf("journal://%s", svc.Name),
			SizeBytes:       uint64(len(out)),
			AttachmentRef:   model.StrPtr(id),
			DiscoveryMethod: "service_journal",
		})
	}
	return logFiles
}
