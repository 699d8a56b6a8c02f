package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reports",
	Short: "Report backend service",
	Long:  `An internal web backend for authenticated spreadsheet uploads, report generation and export, chart rendering, and Google Sheets mirroring.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
