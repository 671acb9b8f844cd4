package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hostsurvey/hostsurvey/bundlefile"
	"github.com/hostsurvey/hostsurvey/model"
)

type validatePlanFlags struct {
	plan   string
	strict bool
}

var validatePlanFlagsV validatePlanFlags

var validatePlanCmd = &cobra.Command{
	Use:   "validate-plan",
	Short: "Validate a pack plan against its schema and evidence requirements",
	RunE:  runValidatePlan,
}

func init() {
	f := validatePlanCmd.Flags()
	f.StringVar(&validatePlanFlagsV.plan, "plan", "", "path to packplan.json (required)")
	f.BoolVar(&validatePlanFlagsV.strict, "strict", false, "fail if any decision lacks an evidence reference")
	_ = validatePlanCmd.MarkFlagRequired("plan")
}

func runValidatePlan(cmd *cobra.Command, args []string) error {
	flags := validatePlanFlagsV
	logger, err := buildLogger(logLevel)
	if err != nil {
		return ExitCodeError{Code: 2}
	}
	defer logger.Sync()

	data, err := os.ReadFile(flags.plan)
	if err != nil {
		logger.Error("reading plan", zap.Error(err))
		return ExitCodeError{Code: 1}
	}

	var plan model.PackPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		logger.Error("parsing plan", zap.Error(err))
		return ExitCodeError{Code: 1}
	}

	result, err := bundlefile.ValidatePackPlan(&plan, flags.strict)
	if err != nil {
		logger.Error("validating plan", zap.Error(err))
		return ExitCodeError{Code: 1}
	}

	for _, w := range result.Warnings {
		fmt.Fprintln(cmd.OutOrStdout(), "warning:", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintln(cmd.OutOrStdout(), "error:", e)
	}

	if !result.Valid {
		return ExitCodeError{Code: 3}
	}
	return nil
}
