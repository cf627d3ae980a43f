package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docaudit/internal/crossref"
	"docaudit/internal/scanner"
	"docaudit/internal/specs"
)

var specsFormat string

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "Validate and cross-reference spec documents",
	Long: `Run the spec pipeline on its own: discover .spec/.arch/.test/.deploy documents
in both YAML and markdown form, check them against their schemas and check
that they agree with each other.`,
}

var specsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every spec against its schema and report duplicate IDs",
	RunE:  runSpecsValidate,
}

var specsXrefCmd = &cobra.Command{
	Use:   "xref",
	Short: "Check references between spec documents",
	RunE:  runSpecsXref,
}

func init() {
	for _, c := range []*cobra.Command{specsValidateCmd, specsXrefCmd} {
		c.Flags().StringVar(&specsFormat, "format", "human", "Output format (human, json)")
	}
	specsCmd.AddCommand(specsValidateCmd)
	specsCmd.AddCommand(specsXrefCmd)
	rootCmd.AddCommand(specsCmd)
}

// walkProject lists the configured root once for the spec commands.
func walkProject() (*scanner.FileSet, error) {
	cfg := loadedConfig()
	return scanner.Walk(rootFlag, scanner.Options{
		Exclude:      cfg.Scan.Exclude,
		MaxFileBytes: cfg.Scan.MaxFileBytes,
		Logger:       cliLogger,
	})
}

func runSpecsValidate(cmd *cobra.Command, args []string) error {
	files, err := walkProject()
	if err != nil {
		return err
	}
	result := specs.Validate(specs.Load(files, cliLogger))

	output, err := FormatResponse(result, OutputFormat(specsFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return exitFor(result)
}

func runSpecsXref(cmd *cobra.Command, args []string) error {
	files, err := walkProject()
	if err != nil {
		return err
	}
	result := crossref.Run(files, specs.Load(files, cliLogger), cliLogger)

	output, err := FormatResponse(result, OutputFormat(specsFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return exitFor(result)
}
