package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stylefit/catalog"
	"stylefit/models"
	"stylefit/services"
)

var (
	classifyHeight string
	classifyWeight string
	classifyStyle  string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print the style report for the given measurements",
	Example: `  stylefit classify --height 175 --weight 70
  stylefit classify --height 182 --weight 95 --style business`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := classifyReport(classifyHeight, classifyWeight, classifyStyle)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyHeight, "height", "", "height in cm (100-250)")
	classifyCmd.Flags().StringVar(&classifyWeight, "weight", "", "weight in kg (30-250)")
	classifyCmd.Flags().StringVar(&classifyStyle, "style", string(models.StyleCasual), "casual, business or street")
	_ = classifyCmd.MarkFlagRequired("height")
	_ = classifyCmd.MarkFlagRequired("weight")
}

// classifyReport runs the wizard offline on a throwaway session.
func classifyReport(height, weight, style string) (string, error) {
	s := models.NewSession("cli")
	if err := services.AttachPhoto(s, "cli"); err != nil {
		return "", err
	}
	services.Advance(s)
	if _, err := services.Analyze(s, height, weight, style); err != nil {
		return "", err
	}
	if err := services.CompleteAnalysis(s); err != nil {
		return "", err
	}
	return services.BuildReport(s, catalog.Default())
}
