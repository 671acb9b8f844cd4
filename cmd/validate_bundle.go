package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hostsurvey/hostsurvey/bundlefile"
)

type validateBundleFlags struct {
	in              string
	checkEvidence   bool
	verifyChecksums bool
}

var validateBundleFlagsV validateBundleFlags

var validateBundleCmd = &cobra.Command{
	Use:   "validate-bundle",
	Short: "Validate a collected bundle's schema, evidence closure, and checksums",
	RunE:  runValidateBundle,
}

func init() {
	f := validateBundleCmd.Flags()
	f.StringVar(&validateBundleFlagsV.in, "in", "", "path to the bundle (required)")
	f.BoolVar(&validateBundleFlagsV.checkEvidence, "check-evidence", true, "verify every evidence/attachment reference resolves")
	f.BoolVar(&validateBundleFlagsV.verifyChecksums, "verify-checksums", false, "recompute and compare evidence checksums")
	_ = validateBundleCmd.MarkFlagRequired("in")
}

func runValidateBundle(cmd *cobra.Command, args []string) error {
	flags := validateBundleFlagsV
	logger, err := buildLogger(logLevel)
	if err != nil {
		return ExitCodeError{Code: 2}
	}
	defer logger.Sync()

	result, err := bundlefile.ValidateFile(flags.in, flags.verifyChecksums)
	if err != nil {
		logger.Error("reading bundle", zap.Error(err))
		return ExitCodeError{Code: 1}
	}

	for _, w := range result.Warnings {
		fmt.Fprintln(cmd.OutOrStdout(), "warning:", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintln(cmd.OutOrStdout(), "error:", e)
	}

	if !flags.checkEvidence {
		// schema and checksum checks still ran above; evidence-closure
		// errors are the only class this flag can suppress.
		var filtered []string
		for _, e := range result.Errors {
			if !isEvidenceError(e) {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			return nil
		}
	}

	if !result.Valid {
		return ExitCodeError{Code: 3}
	}
	return nil
}

func isEvidenceError(msg string) bool {
	return strings.HasPrefix(msg, "invalid evidence reference")
}
