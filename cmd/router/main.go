package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/dbrouter/routingcore/internal/config"
	"github.com/dbrouter/routingcore/internal/metadatacache"
	"github.com/dbrouter/routingcore/internal/rlog"
	"github.com/dbrouter/routingcore/internal/router"
	"github.com/dbrouter/routingcore/internal/socketops"
)

var (
	cfgPath   string
	logLevel  string
	prettyLog bool
	daemonize bool
)

var rootCmd = &cobra.Command{
	Use:   "routingcore run --config <path-to-config>",
	Short: "routingcore",
	Long:  "routingcore is a stateless connection router in front of a database server",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rlog.Zero.Fatal().Err(err).Msg("routingcore exited")
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "/etc/routingcore/config.toml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log_level from the config file")
	rootCmd.PersistentFlags().BoolVar(&prettyLog, "pretty-log", false, "override pretty_log from the config file")
	rootCmd.PersistentFlags().BoolVar(&daemonize, "daemon", false, "run as a background daemon")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the router",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		applyOverrides(cmd, cfg)
		if err := logEffectiveConfig(cfg); err != nil {
			return err
		}

		rlog.Configure("", cfg.PrettyLog)
		rlog.SetLevel(cfg.LogLevel)

		if daemonize {
			ctx := &daemon.Context{
				LogFileName: "/var/log/routingcore.log",
				WorkDir:     "/",
			}
			child, err := ctx.Reborn()
			if err != nil {
				return errors.Wrap(err, "daemonize")
			}
			if child != nil {
				return nil
			}
			defer ctx.Release()
		}

		ops := socketops.Real()
		mdClient, err := newMetadataCacheClient(cfg)
		if err != nil {
			return errors.Wrap(err, "metadata cache client")
		}

		rtr, err := router.New(cfg, ops, mdClient)
		if err != nil {
			return errors.Wrap(err, "build router")
		}

		if err := rtr.Start(); err != nil {
			return errors.Wrap(err, "start router")
		}
		rlog.Zero.Info().Int("routes", len(cfg.Routes)).Msg("routingcore started")

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

		for {
			s := <-sigs
			switch s {
			case syscall.SIGHUP:
				rlog.Zero.Info().Msg("SIGHUP received; config reload is not yet supported, ignoring")
			case syscall.SIGINT, syscall.SIGTERM:
				rlog.Zero.Info().Str("signal", s.String()).Msg("shutting down")
				if err := rtr.Stop(); err != nil {
					rlog.Zero.Error().Err(err).Msg("error during shutdown")
				}
				return nil
			}
		}
	},
}

func newMetadataCacheClient(cfg *config.RouterConfig) (metadatacache.Client, error) {
	if len(cfg.EtcdEndpoints) == 0 {
		return metadatacache.NewStaticClient(), nil
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.EtcdEndpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to etcd")
	}
	return metadatacache.NewEtcdClient(cli, 2*time.Second), nil
}

func main() {
	Execute()
}
