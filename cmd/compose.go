package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/converter"
)

var composeFormat string

// composeCmd generates the interchange of one file and prints it instead of
// writing it to the output directory.
var composeCmd = &cobra.Command{
	Use:   "compose FILE",
	Short: "Print the interchange generated from one file",
	Long: `The compose command runs the pipeline for FILE and writes the result to
stdout. The source file is neither moved nor archived.

Example Usage:
  edigen compose invoices.yaml
  edigen compose acme_0324.csv --partner ACME --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		partners, err := loadPartners()
		if err != nil {
			return err
		}
		partner, err := selectPartner(partners, partnerCode, args[0])
		if err != nil {
			return err
		}

		conf := *mainConfig
		if composeFormat != "" {
			conf.OutputFormat = strings.ToLower(composeFormat)
		}
		if conf.OutputFormat != config.FormatEDIFACT && conf.OutputFormat != config.FormatJSON {
			return fmt.Errorf("unknown format %q", composeFormat)
		}

		result := converter.New(args[0], partner, &conf, logger, converter.WithOutput(os.Stdout)).Run(cmd.Context())
		if result.Error != nil {
			return result.Error
		}
		if !conf.Newline && conf.OutputFormat == config.FormatEDIFACT {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().StringVar(&partnerCode, "partner", "", "Partner code to use instead of file name matching")
	composeCmd.Flags().StringVar(&composeFormat, "format", "", "Output format: edifact or json (default from config)")
}
