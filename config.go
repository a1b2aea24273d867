package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind         string
	port         int
	prefix       string
	profile      bool
	tlsCert      string
	tlsKey       string
	verbose      bool
	version      bool
	pollInterval time.Duration
	sessionTTL   time.Duration
	store        string
	sqlitePath   string
	s3Bucket     string
	s3Prefix     string
	s3Region     string
	s3Endpoint   string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.store {
	case "memory", "sqlite", "s3":
	default:
		return fmt.Errorf("invalid store backend (must be memory, sqlite or s3): %s", c.store)
	}
	if c.store == "s3" && c.s3Bucket == "" {
		return errors.New("--s3-bucket is required with --store=s3")
	}
	if c.pollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll interval too aggressive (minimum 100ms): %s", c.pollInterval)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VALGYT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "valgyt",
		Short:         "A two-person restaurant picker: three choices each, one shared winner.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: VALGYT_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: VALGYT_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: VALGYT_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: VALGYT_PROFILE)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", 2*time.Second, "interval at which waiting participants poll for the peer (env: VALGYT_POLL_INTERVAL)")
	fs.DurationVar(&cfg.sessionTTL, "session-ttl", 0, "time before idle in-memory sessions are reaped, 0 keeps them forever (env: VALGYT_SESSION_TTL)")
	fs.StringVar(&cfg.store, "store", "memory", "session store backend: memory, sqlite or s3 (env: VALGYT_STORE)")
	fs.StringVar(&cfg.sqlitePath, "sqlite-path", "valgyt.db", "path to the sqlite database with --store=sqlite (env: VALGYT_SQLITE_PATH)")
	fs.StringVar(&cfg.s3Bucket, "s3-bucket", "", "bucket holding session objects with --store=s3 (env: VALGYT_S3_BUCKET)")
	fs.StringVar(&cfg.s3Prefix, "s3-prefix", "sessions/", "key prefix for session objects (env: VALGYT_S3_PREFIX)")
	fs.StringVar(&cfg.s3Region, "s3-region", "", "bucket region, defaults to the SDK's resolution (env: VALGYT_S3_REGION)")
	fs.StringVar(&cfg.s3Endpoint, "s3-endpoint", "", "custom S3 endpoint, enables path-style addressing (env: VALGYT_S3_ENDPOINT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: VALGYT_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: VALGYT_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: VALGYT_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: VALGYT_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("valgyt v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
