package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hostsurvey/hostsurvey/bundlefile"
	"github.com/hostsurvey/hostsurvey/collector"
	"github.com/hostsurvey/hostsurvey/executor"
	"github.com/hostsurvey/hostsurvey/model"
	"github.com/hostsurvey/hostsurvey/redact"
)

type collectFlags struct {
	target         string
	osName         string
	mode           string
	out            string
	sshPort        int
	sshUser        string
	sshKey         string
	sshPassword    string
	winrmPort      int
	winrmUser      string
	winrmPassword  string
	winrmHTTPS     bool
	timeoutSeconds int
	progress       string
}

var collectFlagsV collectFlags

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect a host audit bundle",
	RunE:  runCollect,
}

func init() {
	f := collectCmd.Flags()
	f.StringVar(&collectFlagsV.target, "target", "", "target hostname or address")
	f.StringVar(&collectFlagsV.osName, "os", "", "target OS family: linux or windows (required)")
	f.StringVar(&collectFlagsV.mode, "mode", "remote", "collection mode: remote or local-ephemeral")
	f.StringVar(&collectFlagsV.out, "out", "", "bundle output path (required)")
	f.IntVar(&collectFlagsV.sshPort, "ssh-port", 22, "SSH port")
	f.StringVar(&collectFlagsV.sshUser, "ssh-user", "", "SSH user")
	f.StringVar(&collectFlagsV.sshKey, "ssh-key", "", "SSH private key path")
	f.StringVar(&collectFlagsV.sshPassword, "ssh-password", "", "SSH password")
	f.IntVar(&collectFlagsV.winrmPort, "winrm-port", 5985, "WinRM port")
	f.StringVar(&collectFlagsV.winrmUser, "winrm-user", "", "WinRM user")
	f.StringVar(&collectFlagsV.winrmPassword, "winrm-password", "", "WinRM password")
	f.BoolVar(&collectFlagsV.winrmHTTPS, "winrm-https", false, "use HTTPS for WinRM")
	f.IntVar(&collectFlagsV.timeoutSeconds, "timeout", 30, "timeout in seconds (stored in the collector config; no deadline is applied to commands or to the collection)")
	f.StringVar(&collectFlagsV.progress, "progress", "auto", "progress display: auto, plain, tui")
	_ = collectCmd.MarkFlagRequired("os")
	_ = collectCmd.MarkFlagRequired("out")
}

func runCollect(cmd *cobra.Command, args []string) error {
	flags := collectFlagsV
	logger, err := buildLogger(logLevel)
	if err != nil {
		return ExitCodeError{Code: 2}
	}
	defer logger.Sync()

	osType, err := model.ParseOsType(flags.osName)
	if err != nil {
		logger.Error("invalid OS", zap.Error(err))
		return ExitCodeError{Code: 2}
	}

	ctx := context.Background()
	exec, err := connectExecutor(ctx, flags, osType)
	if err != nil {
		logger.Error("could not start collection", zap.Error(err))
		return ExitCodeError{Code: 1}
	}
	defer exec.Close()

	showTUI := flags.progress == "tui" || (flags.progress == "auto" && isatty.IsTerminal(os.Stderr.Fd()))
	var onProgress func(collector.ProgressEvent)
	var tui *progressTUI
	if showTUI {
		tui = newProgressTUI()
		onProgress = tui.update
	} else {
		onProgress = func(ev collector.ProgressEvent) {
			logger.Info("collection stage", zap.String("stage", ev.Stage), zap.String("message", ev.Message))
		}
	}

	mode, err := parseMode(flags.mode)
	if err != nil {
		logger.Error("invalid mode", zap.Error(err))
		return ExitCodeError{Code: 2}
	}

	cfg := collector.Config{
		Target:  flags.target,
		OS:      osType,
		Mode:    mode,
		Timeout: time.Duration(flags.timeoutSeconds) * time.Second,
	}
	coll, err := collector.New(cfg, exec, redact.New(), logger, onProgress)
	if err != nil {
		logger.Error("could not start collection", zap.Error(err))
		return ExitCodeError{Code: 1}
	}

	if tui != nil {
		bundle, runErr := tui.run(ctx, coll)
		if runErr != nil {
			logger.Error("could not start collection", zap.Error(runErr))
			return ExitCodeError{Code: 1}
		}
		return writeBundle(bundle, flags.out, logger)
	}

	bundle, err := coll.Collect(ctx)
	if err != nil {
		logger.Error("could not start collection", zap.Error(err))
		return ExitCodeError{Code: 1}
	}
	return writeBundle(bundle, flags.out, logger)
}

func writeBundle(bundle *model.Bundle, path string, logger *zap.Logger) error {
	if err := bundlefile.Write(bundle, path); err != nil {
		logger.Error("writing bundle", zap.Error(err))
		return ExitCodeError{Code: 1}
	}
	size := "unknown"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	logger.Info("bundle written", zap.String("path", path), zap.String("size", size), zap.Int("errors", len(bundle.Manifest.Errors)))
	return nil
}

// parseMode maps the CLI's hyphenated --mode value onto the
// collector's CollectionMode constants.
func parseMode(s string) (collector.CollectionMode, error) {
	switch s {
	case "remote":
		return collector.ModeRemote, nil
	case "local-ephemeral":
		return collector.ModeLocalEphemeral, nil
	default:
		return "", fmt.Errorf("unknown collection mode %q, want remote or local-ephemeral", s)
	}
}

func connectExecutor(ctx context.Context, flags collectFlags, osType model.OsType) (executor.Executor, error) {
	mode, err := parseMode(flags.mode)
	if err != nil {
		return nil, err
	}
	switch mode {
	case collector.ModeLocalEphemeral:
		return executor.NewLocalExecutor(), nil
	case collector.ModeRemote:
		if osType.IsWindows() {
			return executor.ConnectWinRM(flags.target, flags.winrmPort, flags.winrmHTTPS, flags.winrmUser, flags.winrmPassword)
		}
		return executor.ConnectSSH(ctx, flags.target, flags.sshPort, flags.sshUser, flags.sshKey, flags.sshPassword)
	default:
		return nil, fmt.Errorf("unknown collection mode %q", flags.mode)
	}
}
