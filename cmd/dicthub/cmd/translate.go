package cmd

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"
)

var (
	translateFrom    string
	translateTo      string
	translateTimeout time.Duration
	translateHTML    bool
	translateJSON    bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <text>",
	Short: "Translate text with the enabled plugins",
	Long: `Starts a local sandbox with the enabled plugins and prints each result
as it arrives.

Examples:
  dicthub translate hola --from es --to en
  dicthub translate "guten Morgen"          # source language detected
  dicthub translate --html --from fr bonjour`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&translateFrom, "from", "f", "", "source language (detected when empty)")
	translateCmd.Flags().StringVarP(&translateTo, "to", "t", "", "target language (primary language when empty)")
	translateCmd.Flags().DurationVar(&translateTimeout, "timeout", 15*time.Second, "how long to wait for results")
	translateCmd.Flags().BoolVar(&translateHTML, "html", false, "print sanitized HTML instead of plain text")
	translateCmd.Flags().BoolVar(&translateJSON, "json", false, "print one JSON result per line")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	enabled := a.Preference.EnabledPlugins().Len()
	if enabled == 0 {
		return errors.New("no plugins enabled, run 'dicthub plugins enable <id>' first")
	}
	want := min(enabled, a.Preference.MaxTranslationResult())

	ctx, cancel := context.WithTimeout(ctx, translateTimeout)
	defer cancel()

	sess := a.NewSession()
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	text := strings.Join(args, " ")
	q, err := sess.BuildQuery(ctx, text, translateFrom, translateTo)
	if err != nil {
		printError("invalid query", err)
		return err
	}
	if _, err := sess.Submit(ctx, q); err != nil {
		printError("submit failed", err)
		return err
	}

	out := cmd.OutOrStdout()
	received := 0
	for received < want {
		select {
		case res := <-sess.Results():
			received++
			if err := printResult(out, res); err != nil {
				return err
			}
		case err := <-done:
			if err != nil {
				printError("sandbox stopped", err)
			}
			return err
		case <-ctx.Done():
			if received == 0 {
				return fmt.Errorf("no translation within %s", translateTimeout)
			}
			return nil
		}
	}
	return nil
}

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

func printResult(w io.Writer, res model.TranslationResult) error {
	switch {
	case translateJSON:
		data, err := sonic.Marshal(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case translateHTML:
		_, err := fmt.Fprintf(w, "[%s]\n%s\n\n", res.PluginID, ugcPolicy.Sanitize(res.HTMLContent))
		return err
	default:
		_, err := fmt.Fprintf(w, "[%s]%s\n%s\n\n", res.PluginID, failedTag(res), plainText(res.HTMLContent))
		return err
	}
}

// plainText strips markup and collapses whitespace.
func plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(strictPolicy.Sanitize(s))), " ")
}

func failedTag(res model.TranslationResult) string {
	if res.Success {
		return ""
	}
	return " (failed)"
}
