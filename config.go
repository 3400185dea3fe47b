package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const envPrefix = "WORDPARTY"

type Config struct {
	bind               string
	codeLength         int
	codeRetries        int
	envFile            string
	gameTimeout        time.Duration
	maxPlayers         int
	maxRooms           int
	minPlayers         int
	playerTimeout      time.Duration
	port               int
	prefix             string
	profile            bool
	rateBurst          int
	rateLimit          float64
	reapInterval       time.Duration
	tlsCert            string
	tlsKey             string
	trustClientGuesses bool
	verbose            bool
	version            bool
}

func (c *Config) validate() error {
	var err error

	if (c.tlsCert == "") != (c.tlsKey == "") {
		err = multierr.Append(err, errors.New("both --tls-cert and --tls-key must be provided together"))
	}
	if c.port < 1 || c.port > 65535 {
		err = multierr.Append(err, fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port))
	}
	if c.minPlayers < 2 {
		err = multierr.Append(err, fmt.Errorf("invalid --min-players (must be at least 2): %d", c.minPlayers))
	}
	if c.maxPlayers < c.minPlayers {
		err = multierr.Append(err, fmt.Errorf("--max-players (%d) must not be below --min-players (%d)", c.maxPlayers, c.minPlayers))
	}
	if c.maxRooms < 1 {
		err = multierr.Append(err, fmt.Errorf("invalid --max-rooms (must be at least 1): %d", c.maxRooms))
	}
	if c.codeLength < 4 || c.codeLength > 16 {
		err = multierr.Append(err, fmt.Errorf("invalid --code-length (must be between 4-16 inclusive): %d", c.codeLength))
	}
	if c.codeRetries < 1 {
		err = multierr.Append(err, fmt.Errorf("invalid --code-retries (must be at least 1): %d", c.codeRetries))
	}
	for name, d := range map[string]time.Duration{
		"game-timeout":   c.gameTimeout,
		"player-timeout": c.playerTimeout,
		"reap-interval":  c.reapInterval,
	} {
		if d <= 0 {
			err = multierr.Append(err, fmt.Errorf("invalid --%s (must be positive): %s", name, d))
		}
	}
	if c.rateLimit <= 0 || c.rateBurst < 1 {
		err = multierr.Append(err, fmt.Errorf("invalid rate limit %v/s with burst %d", c.rateLimit, c.rateBurst))
	}

	return err
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) limits() RoomLimits {
	return RoomLimits{
		MaxRooms:    c.maxRooms,
		MinPlayers:  c.minPlayers,
		MaxPlayers:  c.maxPlayers,
		CodeLength:  c.codeLength,
		CodeRetries: c.codeRetries,
	}
}

// bindFlags lets every flag in fs fall back to its WORDPARTY_ environment
// variable when it was not set on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// loadEnvFile reads KEY=value pairs into the environment. Variables that are
// already set win, and a missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "wordparty",
		Short:         "A team word-guessing party game, served over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(cfg.envFile); err != nil {
				return fmt.Errorf("loading %s: %w", cfg.envFile, err)
			}

			// Pick up anything the env file just provided.
			bindFlags(v, cmd.Flags())

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.StringVar(&cfg.envFile, "env-file", ".env", "file of KEY=value pairs to load into the environment (env: WORDPARTY_ENV_FILE)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WORDPARTY_VERBOSE)")

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDPARTY_BIND)")
	fs.IntVar(&cfg.codeLength, "code-length", 6, "length of private room codes (env: WORDPARTY_CODE_LENGTH)")
	fs.IntVar(&cfg.codeRetries, "code-retries", 64, "attempts to find an unused room code before giving up (env: WORDPARTY_CODE_RETRIES)")
	fs.DurationVar(&cfg.gameTimeout, "game-timeout", 30*time.Minute, "time before idle rooms are closed (env: WORDPARTY_GAME_TIMEOUT)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 12, "largest allowed room (env: WORDPARTY_MAX_PLAYERS)")
	fs.IntVar(&cfg.maxRooms, "max-rooms", 1000, "maximum number of live rooms (env: WORDPARTY_MAX_ROOMS)")
	fs.IntVar(&cfg.minPlayers, "min-players", 4, "players required to start a game (env: WORDPARTY_MIN_PLAYERS)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 5*time.Minute, "time before idle players are disconnected (env: WORDPARTY_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WORDPARTY_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: WORDPARTY_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: WORDPARTY_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 20, "messages a connection may send in a burst (env: WORDPARTY_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 10, "sustained messages per second allowed per connection (env: WORDPARTY_RATE_LIMIT)")
	fs.DurationVar(&cfg.reapInterval, "reap-interval", time.Minute, "how often to look for idle rooms and players (env: WORDPARTY_REAP_INTERVAL)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: WORDPARTY_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: WORDPARTY_TLS_KEY)")
	fs.BoolVar(&cfg.trustClientGuesses, "trust-client-guesses", false, "score guesses by the client's isCorrect flag instead of checking the word (env: WORDPARTY_TRUST_CLIENT_GUESSES)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WORDPARTY_VERSION)")

	bindFlags(v, pfs)
	bindFlags(v, fs)

	cmd.AddCommand(newLocalCmd(v))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordparty v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
