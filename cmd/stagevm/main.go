// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

// Command stagevm is the host driver: it loads a movie from disk,
// decodes its chunk catalog and cast, and either dumps that structure or
// runs the movie's frame clock headlessly for a bounded number of
// frames. It is the one place in this module that is allowed to own a
// Network collaborator (internal/netfetch), a logger sink, and process
// lifetime — nothing in container/cast/heap/vm does either.
package main

import (
	"fmt"
	"os"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/stagevm/core/internal/elog"
)

var logLevel string

func newLogger() elog.Logger {
	var lvl kratoslog.Level
	switch logLevel {
	case "debug":
		lvl = kratoslog.LevelDebug
	case "info":
		lvl = kratoslog.LevelInfo
	case "warn":
		lvl = kratoslog.LevelWarn
	default:
		lvl = kratoslog.LevelError
	}
	return kratoslog.NewFilter(kratoslog.NewStdLogger(os.Stderr), kratoslog.FilterLevel(lvl))
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "stagevm",
		Short: "A runtime for legacy multimedia-authoring movies",
		Long:  "stagevm loads RIFX-container movies and either inspects their structure or runs their frame clock headlessly.",
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
