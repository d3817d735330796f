// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/crucible/pkg/logging"
	"github.com/AleutianAI/crucible/services/route"
	"github.com/AleutianAI/crucible/services/route/config"
	"github.com/AleutianAI/crucible/services/route/store"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "crucible",
		Short: "Cheapest routes through cost grids under run-length rules",
		Long: `crucible searches a grid of digit costs for the cheapest route from one
corner to the other, where a policy limits how many cells may be crossed in
a straight line before turning.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config (default $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Log JSON to stderr")

	rootCmd.AddCommand(
		newSolveCmd(a),
		newServeCmd(a),
		newPoliciesCmd(a),
	)
	return rootCmd
}

// init loads the config and installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := cfg.Logging.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}

	a.logger = logging.New(logging.Config{
		Level:   level,
		JSON:    a.logJSON || cfg.Logging.JSON,
		LogDir:  cfg.Logging.LogDir,
		Service: "crucible",
		Output:  cmd.ErrOrStderr(),
	})
	slog.SetDefault(a.logger.Slog())
	return nil
}

// openStore opens the configured result store.
func (a *app) openStore() (store.Store, error) {
	st, err := store.Open(store.Options{
		Backend:  a.cfg.Cache.Backend,
		Capacity: a.cfg.Cache.Capacity,
		Path:     a.cfg.Cache.Path,
		TTL:      a.cfg.Cache.TTL,
		Logger:   a.logger.Slog(),
	})
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return st, nil
}

// newService builds a route service on st.
func (a *app) newService(st store.Store) *route.Service {
	return route.NewService(route.ServiceConfigFrom(*a.cfg), st, a.logger.Slog())
}
