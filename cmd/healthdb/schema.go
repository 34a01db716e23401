// ABOUTME: CLI commands for the validation rule set.
// ABOUTME: schema export writes the active rules as JSON or YAML.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/validate"
)

var (
	schemaOutput string
	schemaFormat string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the validation rule set",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active validation rules",
	Long: `Write the validation rules used by ingest. With rules_path configured the
loaded file is written back; otherwise the built-in rules are.

The output can be edited and pointed to with rules_path.

EXAMPLES:

  healthdb schema export                    # JSON to stdout
  healthdb schema export --format yaml
  healthdb schema export -o rules.yaml      # Format from extension`,
	Annotations: map[string]string{skipStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []validate.Option
		if rules := cfg.GetRulesPath(); rules != "" {
			opts = append(opts, validate.WithRuleSetFile(rules))
		}
		v, err := validate.New(opts...)
		if err != nil {
			return err
		}

		if schemaOutput != "" {
			if err := v.Save(schemaOutput); err != nil {
				return fmt.Errorf("failed to write rules: %w", err)
			}
			green.Fprintf(cmd.OutOrStdout(), "✓ Exported rules to %s\n", schemaOutput)
			return nil
		}

		format := validate.Format(schemaFormat)
		if format != validate.FormatJSON && format != validate.FormatYAML {
			return fmt.Errorf("unknown format: %s (use json or yaml)", schemaFormat)
		}
		return v.Export(cmd.OutOrStdout(), format)
	},
}

func init() {
	schemaExportCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "output file (default: stdout)")
	schemaExportCmd.Flags().StringVar(&schemaFormat, "format", "json", "output format for stdout: json or yaml")
	schemaCmd.AddCommand(schemaExportCmd)
	rootCmd.AddCommand(schemaCmd)
}
