package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/EslamHany2002/Feedback-Report/internal/config"
)

// globalOpts holds the persistent flags. Empty values fall back to the
// FEEDBACK_* environment, then to the config file.
type globalOpts struct {
	configPath     string
	logLevel       string
	logFormat      string
	metricsBackend string

	env    config.Env
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	o := &globalOpts{}

	cmd := &cobra.Command{
		Use:           "feedback-report",
		Short:         "Aggregate survey feedback exports into report metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.init(cmd.ErrOrStderr())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "report config path, JSON or YAML (env FEEDBACK_CONFIG)")
	pf.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error (env FEEDBACK_LOG_LEVEL)")
	pf.StringVar(&o.logFormat, "log-format", "", "log format: text or json (env FEEDBACK_LOG_FORMAT)")
	pf.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway, datadog (env FEEDBACK_METRICS_BACKEND)")

	cmd.AddCommand(newReportCmd(o), newServeCmd(o), newValidateCmd(o))
	return cmd
}

// init reads .env and FEEDBACK_* variables and builds the logger.
func (o *globalOpts) init(stderr io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	o.env = env

	if o.configPath == "" {
		o.configPath = env.ConfigPath
	}
	if o.logLevel == "" {
		o.logLevel = env.LogLevel
	}
	if o.logFormat == "" {
		o.logFormat = env.LogFormat
	}
	if o.logLevel == "" {
		o.logLevel = "info"
	}

	logger, err := newLogger(stderr, o.logLevel, o.logFormat)
	if err != nil {
		return err
	}
	o.logger = logger
	return nil
}

// loadConfig reads the config file and applies the environment and flag
// overrides on top of it.
func (o *globalOpts) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	o.env.Override(&cfg)
	if o.metricsBackend != "" {
		cfg.Metrics.Backend = o.metricsBackend
	}
	return cfg, nil
}

// validConfig loads the config and logs every validation issue. It fails when
// any issue is an error.
func (o *globalOpts) validConfig() (config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		entry := o.logger.WithField("path", iss.Path)
		if iss.Severity == config.SeverityError {
			entry.Error(iss.Message)
		} else {
			entry.Warn(iss.Message)
		}
	}
	if err := issues.Err(); err != nil {
		return config.Config{}, fmt.Errorf("configuration %s is invalid: %w", o.configPath, err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)

	switch format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", format)
	}
	return l, nil
}
