package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitapi"
	"github.com/s0up4200/qbitapi/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *qbitapi.Client

	// Command flags
	hostFlag     string
	usernameFlag string
	passwordFlag string
	verbose      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qbtctl",
	Short: "A command-line client for the qBittorrent Web UI",
	Long: `qbtctl talks to a qBittorrent daemon over its Web API: list and filter
torrents, add new ones, and inspect the daemon. Connection settings come from
flags, a config file, or the QBITAPI_* environment variables.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "qBittorrent Web UI address")
	rootCmd.PersistentFlags().StringVarP(&usernameFlag, "username", "u", "", "Web UI username")
	rootCmd.PersistentFlags().StringVarP(&passwordFlag, "password", "p", "", "Web UI password")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every request and response")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration and builds the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if hostFlag != "" {
		cfg.Connection.Host = hostFlag
	}
	if usernameFlag != "" {
		cfg.Connection.Username = usernameFlag
	}
	if passwordFlag != "" {
		cfg.Connection.Password = passwordFlag
	}

	logger = setupLogger(cfg.Logging)

	opts := []qbitapi.Option{
		qbitapi.WithLogger(logger),
		qbitapi.WithTimeout(cfg.Connection.Timeout),
	}
	if cfg.Connection.Username != "" {
		opts = append(opts, qbitapi.WithCredentials(cfg.Connection.Username, cfg.Connection.Password))
	}
	if !cfg.Connection.VerifyCert {
		opts = append(opts, qbitapi.WithInsecureSkipVerify())
	}
	if cfg.Connection.ForceScheme {
		opts = append(opts, qbitapi.WithForceScheme())
	}
	if verbose {
		opts = append(opts, qbitapi.WithVerboseLogging())
	}

	client = qbitapi.NewClient(cfg.Connection.Host, opts...)
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}
	return zerolog.New(output).With().Timestamp().Logger()
}
