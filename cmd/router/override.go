package main

import (
	"encoding/json"
	"log"

	"github.com/spf13/cobra"

	"github.com/dbrouter/routingcore/internal/config"
)

// overrideRule binds one CLI flag to a RouterConfig field: changed
// reports whether the user passed the flag, apply copies the parsed
// flag value onto cfg. This mirrors the flag-override-over-config-file
// pattern used everywhere else flags layer on top of a config file in
// this codebase.
type overrideRule struct {
	name    string
	changed func() bool
	apply   func(cfg *config.RouterConfig)
}

func buildOverrideRules(cmd *cobra.Command) []overrideRule {
	return []overrideRule{
		{
			name:    "log-level",
			changed: func() bool { return cmd.Flags().Changed("log-level") },
			apply:   func(cfg *config.RouterConfig) { cfg.LogLevel = logLevel },
		},
		{
			name:    "pretty-log",
			changed: func() bool { return cmd.Flags().Changed("pretty-log") },
			apply:   func(cfg *config.RouterConfig) { cfg.PrettyLog = prettyLog },
		},
	}
}

func applyOverrides(cmd *cobra.Command, cfg *config.RouterConfig) {
	for _, rule := range buildOverrideRules(cmd) {
		if rule.changed() {
			rule.apply(cfg)
		}
	}
}

func logEffectiveConfig(cfg *config.RouterConfig) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	log.Println("running config:", string(b))
	return nil
}
