// Command artic-table browses the Art Institute of Chicago artworks catalog
// as a paged, multi-select table.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sternrassler/artic-table/internal/config"
	"github.com/Sternrassler/artic-table/pkg/client"
	"github.com/Sternrassler/artic-table/pkg/logging"
	"github.com/Sternrassler/artic-table/pkg/table"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. Each call uses its own viper
// instance.
func newRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:          "artic-table",
		Short:        "Browse and select artworks from the Art Institute of Chicago",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file path")
	flags.String("base-url", client.DefaultBaseURL, "catalog API root")
	flags.String("user-agent", "artic-table/0.1.0", "User-Agent header")
	flags.Duration("timeout", 0, "per-request timeout (default 30s)")
	flags.Int("limit", 0, "page size requested from the catalog (0 = catalog default)")
	flags.Int("rows", table.DefaultRows, "rows displayed per page")
	flags.Int("max-pages", 0, "page cap for select-first-N walks (0 = unlimited)")
	flags.String("redis-addr", "", "redis host:port for ETag revalidation (empty = off)")
	flags.Int("redis-db", 0, "redis database")
	flags.String("log-level", string(logging.LevelInfo), "debug, info, warn or error")
	flags.String("log-file", "", "write logs to this file")
	flags.Bool("log-pretty", false, "human-readable console logs")

	bind := map[string]string{
		config.KeyConfigFile: "config",
		config.KeyBaseURL:    "base-url",
		config.KeyUserAgent:  "user-agent",
		config.KeyTimeout:    "timeout",
		config.KeyLimit:      "limit",
		config.KeyRows:       "rows",
		config.KeyMaxPages:   "max-pages",
		config.KeyRedisAddr:  "redis-addr",
		config.KeyRedisDB:    "redis-db",
		config.KeyLogLevel:   "log-level",
		config.KeyLogFile:    "log-file",
		config.KeyLogPretty:  "log-pretty",
	}
	for key, flag := range bind {
		mustBind(v, key, flags.Lookup(flag))
	}

	root.AddCommand(
		newBrowseCommand(v),
		newSelectCommand(v),
		newPageCommand(v),
		newProxyCommand(v),
	)
	return root
}

// mustBind binds a config key to a flag. A missing flag is a wiring bug in
// the command tree, so it panics.
func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("bind %s: flag not defined", key))
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind %s: %v", key, err))
	}
}

// runtime is what every subcommand needs.
type runtime struct {
	settings *config.Settings
	client   *client.Client
	redis    *redis.Client
	logClose io.Closer
}

// setup loads settings, configures logging and builds the catalog client.
// quietLogs sends logs nowhere unless a log file is configured.
func setup(v *viper.Viper, quietLogs bool) (*runtime, error) {
	s, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	var closer io.Closer = io.NopCloser(nil)
	switch {
	case quietLogs && s.LogFile == "":
		logging.Discard()
	default:
		_, closer, err = logging.SetupFile(s.LoggingConfig())
		if err != nil {
			return nil, err
		}
	}

	var rdb *redis.Client
	if opts := s.RedisOptions(); opts != nil {
		rdb = redis.NewClient(opts)
	}

	c, err := client.New(s.ClientConfig(rdb))
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("create catalog client: %w", err)
	}

	return &runtime{settings: s, client: c, redis: rdb, logClose: closer}, nil
}

func (rt *runtime) controller() (*table.Controller, error) {
	return table.New(rt.client, rt.settings.TableConfig())
}

func (rt *runtime) Close() error {
	rt.client.Close()
	if rt.redis != nil {
		rt.redis.Close()
	}
	return rt.logClose.Close()
}
