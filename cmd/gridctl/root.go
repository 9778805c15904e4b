package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridform/internal/config"
	"github.com/JonMunkholm/gridform/internal/dataservice"
	"github.com/JonMunkholm/gridform/internal/logging"
	"github.com/JonMunkholm/gridform/internal/rpc"
)

// app carries what every subcommand shares once the root has run.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfg    *config.ClientConfig
	logger *slog.Logger

	baseURL string
	apiKey  string
	quiet   bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "gridctl",
		Short:         "Compile grid pages and call gridform servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.baseURL, "url", "", "server base URL (overrides GRID_BASE_URL)")
	flags.StringVar(&a.apiKey, "api-key", "", "API key (overrides GRID_API_KEY)")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "suppress busy and status output")

	root.AddCommand(
		newCompileCmd(a),
		newQueryCmd(a),
		newSaveCmd(a),
		newCombosCmd(a),
	)
	return root
}

func (a *app) init() error {
	// A missing .env is normal; variables may come from the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.Transport.BaseURL = a.baseURL
	}
	if a.apiKey != "" {
		cfg.Transport.APIKey = a.apiKey
	}
	a.cfg = cfg
	a.logger = logging.New(a.errOut, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(a.logger)
	a.logger.Debug("configuration loaded", "config", cfg.String())
	return nil
}

// service builds a data service over the HTTP transport.
func (a *app) service() (*dataservice.Service, error) {
	client, err := rpc.NewClient(rpc.ClientConfig{
		BaseURL:    a.cfg.Transport.BaseURL,
		Timeout:    a.cfg.Transport.Timeout,
		RetryCount: a.cfg.Transport.RetryCount,
		APIKey:     a.cfg.Transport.APIKey,
		Certs:      a.cfg.Transport.Certs,
		KeyInfo:    a.cfg.Transport.KeyInfo,
		Debug:      a.cfg.Transport.Debug,
		Logger:     a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	caps := dataservice.Capabilities{
		Structured:  client,
		Legacy:      client,
		Diagnostics: dataservice.LogDiagnostics{Logger: a.logger},
		Notifier:    &stderrNotifier{w: a.errOut},
	}
	if !a.quiet {
		caps.Busy = &stderrBusy{w: a.errOut}
	}
	return dataservice.NewService(caps), nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// rpcPath maps a page name to its remote-call endpoint.
func rpcPath(pageName string) string {
	return "/rpc/" + strings.TrimPrefix(pageName, "/")
}

// stderrBusy prints the busy message on its own line.
type stderrBusy struct {
	w io.Writer
}

func (b *stderrBusy) Show(message string) {
	if message == "" {
		message = "working"
	}
	fmt.Fprintf(b.w, "%s...\n", message)
}

func (b *stderrBusy) Hide() {}

// stderrNotifier stands in for a modal alert.
type stderrNotifier struct {
	w io.Writer
}

func (n *stderrNotifier) Alert(_ context.Context, msg string) error {
	_, err := fmt.Fprintf(n.w, "! %s\n", msg)
	return err
}
