// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/internal/config"
	"github.com/stagevm/core/internal/netfetch"
	"github.com/stagevm/core/vm"
)

var (
	runBaseURL string
	runTimeout time.Duration
	runFrames  int
	runTick    time.Duration
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <movie>",
		Short: "Run a movie's frame clock headlessly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMovie(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&runBaseURL, "base-url", "", "base URL external casts resolve relative paths against")
	cmd.Flags().DurationVar(&runTimeout, "net-timeout", 30*time.Second, "timeout for external cast fetches")
	cmd.Flags().IntVar(&runFrames, "frames", 0, "advance at most this many frames, 0 runs until canceled")
	cmd.Flags().DurationVar(&runTick, "tick", 0, "delay between frame advances, 0 runs as fast as possible")
	return cmd
}

// runMovie loads the movie, primes frame one, fires Play, then advances the
// frame clock on an errgroup-managed loop bounded by --frames and/or
// SIGINT/SIGTERM — the headless stand-in for a real host's render-loop
// timer, which stays outside the interpreter's own responsibility.
func runMovie(cmd *cobra.Command, path string) error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := container.Load(path, logger)
	if err != nil {
		return fmt.Errorf("loading %q: %w", path, err)
	}
	defer r.Close()

	player := config.DefaultPlayer()
	player.BaseURL = runBaseURL
	player.NetTimeout = runTimeout

	casts := cast.NewManager(player, netfetch.New(runTimeout), logger)
	if err := casts.LoadFromCatalog(r); err != nil {
		return fmt.Errorf("loading cast: %w", err)
	}

	movie := vm.NewMovie(r, casts, player, logger)
	movie.OnChannelNameChanged = func(channel int32, name string) {
		logger.Log(kratoslog.LevelInfo, "msg", "channel-name-changed", "channel", channel, "name", name)
	}
	movie.EmitChannelNames()
	if err := movie.Play(); err != nil {
		return fmt.Errorf("enterFrame on frame 1: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		frames := 0
		for {
			if runFrames > 0 && frames >= runFrames {
				movie.Stop()
				return nil
			}
			select {
			case <-ctx.Done():
				movie.Stop()
				return nil
			default:
			}
			if err := movie.AdvanceFrame(); err != nil {
				return fmt.Errorf("advancing frame %d: %w", movie.CurrentFrame, err)
			}
			frames++
			if runTick > 0 {
				select {
				case <-ctx.Done():
					movie.Stop()
					return nil
				case <-time.After(runTick):
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stopped at frame %d\n", movie.CurrentFrame)
	return nil
}
