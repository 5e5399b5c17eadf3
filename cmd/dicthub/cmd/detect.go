package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var detectTimeout time.Duration

var detectCmd = &cobra.Command{
	Use:   "detect <text>",
	Short: "Detect the language of a text",
	Long: `Asks Bing and Google in parallel and prints the first answer.

Examples:
  dicthub detect "bonjour tout le monde"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().DurationVar(&detectTimeout, "timeout", 10*time.Second, "detection timeout")
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	l, err := a.Detector.DetectLanguage(ctx, strings.Join(args, " "))
	if err != nil {
		printError("detection failed", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), l.Code())
	return nil
}
