package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/deepfence/trustier/sbom"
	"github.com/deepfence/trustier/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "TRUSTIER"

// stdinPiped is swapped in tests so they do not depend on how the test binary's
// stdin is wired.
var stdinPiped = utils.StdinPiped

func newRootCommand() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "trustier [flags] SBOM",
		Short: "Fetch trustypkg.dev trust information for the packages in a CycloneDX SBOM",
		Long: `trustier reads a CycloneDX JSON SBOM, keeps the package URLs of the
ecosystems trustypkg.dev supports (pypi, npm, crates, maven, go) and queries
the trust API for each of them, one request at a time.

Use "-" as SBOM, or pipe the document into trustier, to read standard input.

Examples:
  trustier bom.json
  trustier --ratelimit 1000 --output-file reports/trust.json bom.json
  syft dir:. -o cyclonedx-json | trustier --format table`,
		Args: sbomArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			config, err := loadConfig(v, cmd)
			if err != nil {
				return err
			}
			config.Mode = utils.ModeLocal
			config.Source = utils.StdinSource
			if len(args) == 1 {
				config.Source = args[0]
			}
			config.Progress = !config.Quiet && !config.Debug && utils.IsTerminal(os.Stderr)

			setupLogging(config, cmd.ErrOrStderr())
			log.Debugf("config %+v", config)
			return RunOnce(cmd.Context(), config, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.IntP("ratelimit", "r", utils.DefaultRateLimitMs, "Milliseconds to pause after each request to trustypkg.dev")
	flags.StringP("output-file", "o", "", "Write results to this file instead of standard output")
	flags.StringP("format", "f", utils.JSONOutput, "Output format: json, yaml or table")
	flags.String("api-url", utils.DefaultAPIURL, "Trust API package endpoint")
	flags.Duration("timeout", utils.DefaultTimeout, "Timeout for each trust API request")
	flags.Bool("fail-fast", false, "Abort the run on the first failed trust API request")
	flags.BoolP("quiet", "q", false, "Only print warnings and errors")
	flags.Bool("debug", false, "Print debug logs")
	flags.String("config", "", "YAML config file with flag values")

	rootCmd.AddCommand(newServeCommand(v))
	return rootCmd
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve trust lookups for uploaded SBOMs over HTTP",
		Long: `serve starts an HTTP server. POST a CycloneDX JSON SBOM to /sbom to receive
its trust report. Uploads are processed one at a time so the rate limit
applies across all clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			config, err := loadConfig(v, cmd)
			if err != nil {
				return err
			}
			config.Mode = utils.ModeHTTPServer

			setupLogging(config, cmd.ErrOrStderr())
			return sbom.RunHTTPServer(cmd.Context(), config)
		},
	}
	serveCmd.Flags().StringP("port", "p", utils.DefaultPort, "Port for the http server")
	return serveCmd
}

// sbomArgs reports argument errors with the usage text on stderr.
func sbomArgs(cmd *cobra.Command, args []string) error {
	err := cobra.MaximumNArgs(1)(cmd, args)
	if err == nil && len(args) == 0 && !stdinPiped() {
		err = fmt.Errorf("requires an SBOM file, or an SBOM piped to standard input")
	}
	if err != nil {
		cmd.SilenceUsage = true
		fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	}
	return err
}

// loadConfig resolves every setting from flags, TRUSTIER_* environment
// variables and the optional config file, in that order of precedence.
func loadConfig(v *viper.Viper, cmd *cobra.Command) (utils.Config, error) {
	var config utils.Config

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config, errors.Wrap(err, "error binding flags")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return config, errors.Wrapf(err, "error reading config file %s", path)
		}
	}

	config = utils.Config{
		Port:        v.GetString("port"),
		Output:      strings.ToLower(v.GetString("format")),
		OutputFile:  v.GetString("output-file"),
		Quiet:       v.GetBool("quiet"),
		Debug:       v.GetBool("debug"),
		RateLimitMs: v.GetInt("ratelimit"),
		APIURL:      v.GetString("api-url"),
		Timeout:     v.GetDuration("timeout"),
		FailFast:    v.GetBool("fail-fast"),
	}

	if config.RateLimitMs < 0 {
		return config, fmt.Errorf("ratelimit should be 0 or more milliseconds, got %d", config.RateLimitMs)
	}
	if !utils.ValidOutput(config.Output) {
		return config, fmt.Errorf("format should be %s, %s or %s", utils.JSONOutput, utils.YAMLOutput, utils.TableOutput)
	}
	return config, nil
}

func setupLogging(config utils.Config, w io.Writer) {
	customFormatter := new(log.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	log.SetFormatter(customFormatter)
	log.SetOutput(w)

	switch {
	case config.Debug:
		log.SetLevel(log.DebugLevel)
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case config.Quiet:
		log.SetLevel(log.WarnLevel)
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		log.SetLevel(log.InfoLevel)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
