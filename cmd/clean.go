package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/annis-souames/edifact-generator/pkg/utils"
)

var olderThan time.Duration

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove archived files older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		total := 0
		for _, dir := range []string{mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir} {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				continue
			}
			removed, err := utils.CleanOldArchives(dir, olderThan)
			if err != nil {
				return err
			}
			logger.Info("cleaned archive", zap.String("dir", dir), zap.Int("removed", removed))
			total += removed
		}
		fmt.Printf("Removed %d archived file(s)\n", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of the files to remove")
}
