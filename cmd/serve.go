package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samsaffron/course-llm/internal/serve"
	"github.com/samsaffron/course-llm/internal/serve/chat"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web chat",
	Long: `Serve the course assistant web chat.

Each browser tab gets its own session with its own transcript. Sessions
can be reset, exported as JSON or Markdown, and restored from a JSON
export.

Examples:
  course-llm serve
  course-llm serve --listen 0.0.0.0:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (default from config, 127.0.0.1:8501)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := bootstrap()
	if err != nil {
		return err
	}

	addr := env.cfg.Listen
	if serveListen != "" {
		addr = serveListen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := chat.NewSessionManager(chat.Options{
		Bridge:       env.bridge,
		SystemPrompt: env.system,
		Logger:       env.logger,
	})
	go manager.StartGC(ctx)

	server := serve.NewServer(manager.HTTPHandler(), env.logger)
	if _, err := server.Start(addr); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "course-llm listening on %s\n", server.URL())

	<-ctx.Done()
	env.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
