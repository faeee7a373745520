// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/internal/config"
	"github.com/stagevm/core/internal/netfetch"
)

var (
	dumpBaseURL string
	dumpTimeout time.Duration
)

// sectionDump mirrors one container.ChunkInfo, dropping the low-level
// compression GUID that means nothing outside the decompressor.
type sectionDump struct {
	SectionID       int32  `json:"sectionId"`
	FourCC          string `json:"fourCC"`
	Offset          uint32 `json:"offset"`
	CompressedLen   uint32 `json:"compressedLen"`
	UncompressedLen uint32 `json:"uncompressedLen"`
}

type memberDump struct {
	Number int32  `json:"number"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

type libraryDump struct {
	Number  int32        `json:"number"`
	Name    string       `json:"name"`
	State   string       `json:"state"`
	Members []memberDump `json:"members"`
}

type labelDump struct {
	Frame int    `json:"frame"`
	Label string `json:"label"`
}

type scoreDump struct {
	FrameCount   int         `json:"frameCount"`
	ChannelCount int         `json:"channelCount"`
	Labels       []labelDump `json:"labels,omitempty"`
}

type movieDump struct {
	DirVersion uint16        `json:"dirVersion"`
	Sections   []sectionDump `json:"sections"`
	Libraries  []libraryDump `json:"libraries"`
	Score      scoreDump     `json:"score"`
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <movie>",
		Short: "Decode a movie's chunk catalog, cast, and score and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&dumpBaseURL, "base-url", "", "base URL external casts resolve relative paths against")
	cmd.Flags().DurationVar(&dumpTimeout, "net-timeout", 30*time.Second, "timeout for external cast fetches")
	return cmd
}

func runDump(cmd *cobra.Command, path string) error {
	logger := newLogger()

	r, err := container.Load(path, logger)
	if err != nil {
		return fmt.Errorf("loading %q: %w", path, err)
	}
	defer r.Close()

	player := config.DefaultPlayer()
	player.BaseURL = dumpBaseURL
	player.NetTimeout = dumpTimeout

	casts := cast.NewManager(player, netfetch.New(dumpTimeout), logger)
	if err := casts.LoadFromCatalog(r); err != nil {
		return fmt.Errorf("loading cast: %w", err)
	}

	out := movieDump{DirVersion: r.DirVersion()}

	for id, info := range r.Catalog().Sections {
		out.Sections = append(out.Sections, sectionDump{
			SectionID:       id,
			FourCC:          info.FourCC.String(),
			Offset:          info.Offset,
			CompressedLen:   info.CompressedLen,
			UncompressedLen: info.UncompressedLen,
		})
	}
	sort.Slice(out.Sections, func(i, j int) bool { return out.Sections[i].SectionID < out.Sections[j].SectionID })

	for _, lib := range casts.Libraries {
		ld := libraryDump{Number: lib.Number, Name: lib.Name, State: lib.State.String()}
		for _, m := range lib.Members {
			ld.Members = append(ld.Members, memberDump{Number: m.Number, Name: m.Name, Type: m.Type.String()})
		}
		sort.Slice(ld.Members, func(i, j int) bool { return ld.Members[i].Number < ld.Members[j].Number })
		out.Libraries = append(out.Libraries, ld)
	}
	sort.Slice(out.Libraries, func(i, j int) bool { return out.Libraries[i].Number < out.Libraries[j].Number })

	if casts.Score != nil {
		out.Score.FrameCount = casts.Score.FrameCount
		out.Score.ChannelCount = casts.Score.ChannelCount
		for frame := 1; frame <= casts.Score.FrameCount; frame++ {
			if label, ok := casts.Score.LabelAt(frame); ok {
				out.Score.Labels = append(out.Score.Labels, labelDump{Frame: frame, Label: label})
			}
		}
	}

	buf, err := json.MarshalIndent(out, "", "\t")
	if err != nil {
		return fmt.Errorf("marshaling dump: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(buf))
	return nil
}
