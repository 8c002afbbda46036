// Command configcat evaluates ConfigCat feature flags from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcat "github.com/configcat/go-sdk/v9"
)

var (
	configFile string
	v          = viper.New()
)

var rootCmd = &cobra.Command{
	Use:          "configcat",
	Short:        "Evaluate ConfigCat feature flags",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ./configcat.yaml if present)")
	flags.String("sdk-key", "", "ConfigCat SDK key")
	flags.String("base-url", "", "CDN base URL")
	flags.String("mode", "auto", "refresh mode: auto, lazy, manual or always")
	flags.Duration("poll-interval", configcat.DefaultPollInterval, "auto poll interval or lazy load TTL")
	flags.Duration("max-wait", 0, "maximum wait for synchronous calls (0 or at least 2s)")
	flags.String("local-file", "", "read the configuration from this file instead of the CDN")
	flags.String("log-level", "warn", "log level")
	flags.String("redis-addr", "", "share the configuration through this Redis server")

	for key, flag := range map[string]string{
		"sdk_key":       "sdk-key",
		"base_url":      "base-url",
		"mode":          "mode",
		"poll_interval": "poll-interval",
		"max_wait":      "max-wait",
		"local_file":    "local-file",
		"log_level":     "log-level",
		"redis.addr":    "redis-addr",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	getCmd.Flags().String("user", "", "user identifier to evaluate for")
	getCmd.Flags().StringSlice("attr", nil, "user attribute as name=value (repeatable)")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(getCmd, keysCmd, watchCmd)
}

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print the value of a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("user")
		attrs, _ := cmd.Flags().GetStringSlice("attr")
		user, err := parseUser(id, attrs)
		if err != nil {
			return err
		}
		return withClient(nil, func(client *configcat.Client) error {
			if err := refreshIfManual(client); err != nil {
				return err
			}
			value, err := client.GetValue(args[0], user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\t%s\n", value, client.GetVariationID(args[0], "", user))
			return nil
		})
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the setting keys and their Variation IDs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(nil, func(client *configcat.Client) error {
			if err := refreshIfManual(client); err != nil {
				return err
			}
			keys, err := client.GetAllKeys()
			if err != nil {
				return err
			}
			ids, err := client.GetAllVariationIDs(nil)
			if err != nil {
				return err
			}
			for i, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, ids[i])
			}
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the configuration up to date and report changes until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		hooks := &configcat.Hooks{
			OnConfigChanged: func() {
				fmt.Fprintf(out, "%s config changed\n", time.Now().Format(time.RFC3339))
			},
			OnError: func(err error) {
				fmt.Fprintf(out, "%s %v\n", time.Now().Format(time.RFC3339), err)
			},
		}
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		return withClient(func(config *configcat.ClientConfig) {
			config.Hooks = hooks
			config.WatchLocalFile = config.LocalFilePath != ""
			if metricsAddr != "" {
				config.Registerer = prometheus.DefaultRegisterer
			}
		}, func(client *configcat.Client) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						fmt.Fprintf(out, "metrics server: %v\n", err)
					}
				}()
				defer srv.Shutdown(context.Background())
			}

			keys, err := client.GetAllKeys()
			if err == nil {
				fmt.Fprintf(out, "watching %d settings\n", len(keys))
			}
			<-ctx.Done()
			return nil
		})
	},
}

// withClient builds a client from the loaded configuration, applies
// adjust to its options and runs f with it.
func withClient(adjust func(*configcat.ClientConfig), f func(*configcat.Client) error) error {
	cfg, err := Load(v, configFile)
	if err != nil {
		return err
	}
	config, closeCache, err := cfg.clientConfig()
	if err != nil {
		return err
	}
	defer closeCache()
	if adjust != nil {
		adjust(&config)
	}
	client := configcat.NewCustomClient(cfg.SDKKey, config)
	defer client.Close()
	return f(client)
}

// refreshIfManual fetches the configuration for clients that would not fetch on their own.
func refreshIfManual(client *configcat.Client) error {
	if !strings.EqualFold(v.GetString("mode"), "manual") {
		return nil
	}
	return client.Refresh()
}

func parseUser(id string, attrs []string) (*configcat.User, error) {
	if id == "" {
		if len(attrs) > 0 {
			return nil, fmt.Errorf("--attr requires --user")
		}
		return nil, nil
	}
	custom := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		name, value, ok := strings.Cut(attr, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid attribute %q, want name=value", attr)
		}
		custom[name] = value
	}
	return configcat.NewUserWithAdditionalAttributes(id, "", "", custom), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
