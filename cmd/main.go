package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stylefit",
	Short: "StyleFit body-type styling service",
	Long: `StyleFit classifies a user's build from height and weight and serves
clothing, color and styling recommendations through a three-step wizard.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
