package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/server"
	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	Long: `Starts the REST API, the /ws translation stream and the background
update checks.

Examples:
  dicthub serve
  dicthub serve --port 9000
  dicthub serve --config dicthub.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.Config.Server.Port = servePort
	}
	if err := server.NewServer(a).Run(ctx); err != nil {
		printError("server error", err)
		return err
	}
	return nil
}
