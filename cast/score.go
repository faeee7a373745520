// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

import (
	"strings"

	"github.com/stagevm/core/container"
)

var (
	fourCCVWSC = container.NewFourCC("VWSC")
	fourCCSCVW = container.NewFourCC("SCVW")
	fourCCVWLB = container.NewFourCC("VWLB")
	fourCCCinf = container.NewFourCC("Cinf")
)

// Score is the movie's frame-indexed sprite timeline: each frame has
// channels, each channel carries a sprite. It wraps the raw decoded
// VWSC/SCVW chunk plus the VWLB frame-label table, resolving both into a
// form the interpreter can drive a frame-advance loop from without
// touching container types directly.
type Score struct {
	FrameCount   int
	ChannelCount int
	Frames       []container.ScoreFrame

	// ChannelNames holds every sprite channel an author gave an explicit
	// name in the score window, keyed by its 1-based channel number.
	// Renaming a channel at authoring time is what the host-facing
	// `channel-name-changed` event reports; this is the table a driver
	// reads to know what name to report for a given channel.
	ChannelNames map[int]string

	labelToFrame map[string]int
	frameToLabel map[int]string
}

// NewScore builds a Score from the container's decoded score chunk, an
// optional frame-labels chunk (nil when the movie defines no markers),
// and an optional channel-names chunk (nil when no channel was ever
// explicitly named).
func NewScore(score *container.ScoreChunk, labels *container.FrameLabelsChunk, channelNames *container.ChannelNamesChunk) *Score {
	s := &Score{
		ChannelNames: make(map[int]string),
		labelToFrame: make(map[string]int),
		frameToLabel: make(map[int]string),
	}
	if score != nil {
		s.FrameCount = score.FrameCount
		s.ChannelCount = score.ChannelCount
		s.Frames = score.Frames
	}
	if labels != nil {
		for _, e := range labels.Entries {
			s.labelToFrame[strings.ToLower(e.Label)] = e.FrameNumber
			s.frameToLabel[e.FrameNumber] = e.Label
		}
	}
	if channelNames != nil {
		for i, name := range channelNames.Names {
			if name != "" {
				s.ChannelNames[i+1] = name
			}
		}
	}
	return s
}

// ChannelName returns the explicit name authored for a sprite channel,
// if any.
func (s *Score) ChannelName(channel int) (string, bool) {
	name, ok := s.ChannelNames[channel]
	return name, ok
}

// FrameAt returns the channel occupancy for a 1-based frame number.
func (s *Score) FrameAt(frameNumber int) (container.ScoreFrame, bool) {
	for _, f := range s.Frames {
		if f.FrameNumber == frameNumber {
			return f, true
		}
	}
	return container.ScoreFrame{}, false
}

// FrameForLabel resolves a named marker to its frame number,
// case-insensitively, matching the original player's go-to-frame-by-name
// navigation.
func (s *Score) FrameForLabel(label string) (int, bool) {
	n, ok := s.labelToFrame[strings.ToLower(label)]
	return n, ok
}

// LabelAt returns the marker label attached to frameNumber, if any.
func (s *Score) LabelAt(frameNumber int) (string, bool) {
	l, ok := s.frameToLabel[frameNumber]
	return l, ok
}

// LoadScore decodes the movie's score and frame-label sections, if
// present. A movie with no VWSC/SCVW section yields an empty Score rather
// than an error — some cast-only libraries carry no playable timeline.
func LoadScore(r *container.ChunkReader) (*Score, error) {
	var scoreChunk *container.ScoreChunk
	var labelsChunk *container.FrameLabelsChunk
	var channelNamesChunk *container.ChannelNamesChunk

	for id, info := range r.Catalog().Sections {
		switch info.FourCC {
		case fourCCVWSC, fourCCSCVW:
			chunkAny, err := r.DecodeChunk(id, info.FourCC)
			if err != nil {
				return nil, err
			}
			if sc, ok := chunkAny.(*container.ScoreChunk); ok {
				scoreChunk = sc
			}
		case fourCCVWLB:
			chunkAny, err := r.DecodeChunk(id, fourCCVWLB)
			if err != nil {
				return nil, err
			}
			if lb, ok := chunkAny.(*container.FrameLabelsChunk); ok {
				labelsChunk = lb
			}
		case fourCCCinf:
			chunkAny, err := r.DecodeChunk(id, fourCCCinf)
			if err != nil {
				return nil, err
			}
			if ci, ok := chunkAny.(*container.ChannelNamesChunk); ok {
				channelNamesChunk = ci
			}
		}
	}

	return NewScore(scoreChunk, labelsChunk, channelNamesChunk), nil
}
