package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tickettriage/internal/config"
	"tickettriage/internal/httpx"
	"tickettriage/internal/integrations/llm"
	"tickettriage/internal/logger"
	"tickettriage/internal/triage"
)

type options struct {
	ticket     string
	configPath string
	logLevel   string
	logJSON    bool
}

func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tickettriage [ticket text]",
		Short:         "Triage a support ticket into a structured classification",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd, opts, args)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "emit JSON logs on stderr")
	root.Flags().StringVar(&opts.ticket, "ticket", "", "support ticket text")

	root.AddCommand(urgencyCmd(opts))
	root.AddCommand(keywordsCmd(opts))
	return root
}

func runTriage(cmd *cobra.Command, opts *options, args []string) error {
	stderr := cmd.ErrOrStderr()

	ticket, err := resolveTicket(opts.ticket, args)
	if err != nil {
		fmt.Fprintln(stderr, "Error: Ticket text cannot be empty.")
		return err
	}

	cfg, err := setup(cmd, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	keywords, err := loadKeywords(cmd, cfg)
	if err != nil {
		return err
	}

	if !cfg.GenerativeBackendConfigured() {
		logger.Logger.Warnw("generative backend not configured, using heuristic classifier", "provider", cfg.LLMProvider)
	}
	client := llm.NewClient(cfg, httpx.ExternalHTTPClient(), logger.Logger.Named("llm"))
	pipeline := triage.NewPipeline(client, keywords, logger.Logger.Named("triage"))

	rec, err := pipeline.Process(cmd.Context(), ticket)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to process ticket")
		fmt.Fprintln(stderr, err)
		return err
	}
	return writeJSON(cmd.OutOrStdout(), rec)
}

func urgencyCmd(opts *options) *cobra.Command {
	var ticketFlag string
	cmd := &cobra.Command{
		Use:   "urgency [ticket text]",
		Short: "List the urgency indicators found in a ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket, err := resolveTicket(ticketFlag, args)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error: Ticket text cannot be empty.")
				return err
			}
			cfg, err := setup(cmd, opts)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}
			keywords, err := loadKeywords(cmd, cfg)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), keywords.ExtractUrgency(ticket))
		},
	}
	cmd.Flags().StringVar(&ticketFlag, "ticket", "", "support ticket text")
	return cmd
}

func keywordsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "keywords",
		Short: "Print the effective urgency and override keyword lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}
			keywords, err := loadKeywords(cmd, cfg)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(keywords); err != nil {
				return errors.Wrap(err, "encode keywords")
			}
			return enc.Close()
		},
	}
}

func loadKeywords(cmd *cobra.Command, cfg config.Config) (triage.Keywords, error) {
	kw, err := triage.LoadKeywords(cfg.KeywordsPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return triage.Keywords{}, err
	}
	return kw, nil
}

// setup loads config, then initialises logging and the shared HTTP client
// from it. Flags override the config's log settings.
func setup(cmd *cobra.Command, opts *options) (config.Config, error) {
	var cfg config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadConfigFrom(opts.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return config.Config{}, errors.Wrap(err, "load config")
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON = opts.logJSON
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogJSON); err != nil {
		return config.Config{}, errors.Wrapf(err, "invalid log level '%s'", cfg.LogLevel)
	}

	timeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	logger.Logger.Debugw("config loaded",
		"path", cfg.Path,
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModel,
		"keywords_path", cfg.KeywordsPath,
		"external_http_timeout", timeout.String(),
	)
	return cfg, nil
}

func resolveTicket(flagValue string, args []string) (string, error) {
	text := flagValue
	if text == "" {
		text = strings.Join(args, " ")
	}
	return triage.PrepareTicket(text)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode result")
	}
	return nil
}
