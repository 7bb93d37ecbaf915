// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chunker splits document text into overlapping segments sized for
// embedding and retrieval.
//
// Sizes and offsets are counted in runes. Splitting is greedy: each chunk ends
// at the last paragraph break inside its window, falling back to a line or
// sentence end, then to whitespace, and finally to a hard cut at the window
// limit. Every chunk after the first starts exactly Overlap runes before the
// end of the previous chunk, so dropping the first Overlap runes of each
// later chunk and concatenating reconstructs the input.
package chunker

import (
	"errors"
	"fmt"
	"unicode"
)

const (
	DefaultMaxSize = 1000
	DefaultOverlap = 200
)

var (
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrInvalidOverlap   = errors.New("overlap must be non-negative and smaller than chunk size")
)

// Span is a half-open rune range [Start, End) of the source text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

type Splitter struct {
	maxSize int
	overlap int
}

// New returns a Splitter producing chunks of at most maxSize runes with
// overlap runes shared between neighbours.
func New(maxSize, overlap int) (*Splitter, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap %d, size %d", ErrInvalidOverlap, overlap, maxSize)
	}
	return &Splitter{maxSize: maxSize, overlap: overlap}, nil
}

// MaxSize returns the configured chunk size limit.
func (s *Splitter) MaxSize() int {
	return s.maxSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split returns the chunk texts for text. Empty input yields nil.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	spans := s.spans(runes)
	if len(spans) == 0 {
		return nil
	}
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = string(runes[sp.Start:sp.End])
	}
	return out
}

// SplitSpans returns the rune ranges Split would produce.
func (s *Splitter) SplitSpans(text string) []Span {
	return s.spans([]rune(text))
}

func (s *Splitter) spans(runes []rune) []Span {
	n := len(runes)
	if n == 0 {
		return nil
	}
	var out []Span
	start := 0
	for {
		limit := start + s.maxSize
		if limit >= n {
			out = append(out, Span{Start: start, End: n})
			return out
		}
		// end must land past start+overlap so the next chunk advances
		end := lastBoundary(runes, start+s.overlap, limit)
		out = append(out, Span{Start: start, End: end})
		start = end - s.overlap
	}
}

type boundaryFunc func(runes []rune, p int) bool

// Boundary classes in preference order. p is the position just after the
// separator.
var boundaries = []boundaryFunc{
	isParagraphEnd,
	isSentenceEnd,
	isWordEnd,
}

// lastBoundary finds the rightmost boundary position in (lo, hi] for the most
// preferred class that has one, or hi when none exists.
func lastBoundary(runes []rune, lo, hi int) int {
	for _, match := range boundaries {
		for p := hi; p > lo; p-- {
			if match(runes, p) {
				return p
			}
		}
	}
	return hi
}

func isParagraphEnd(runes []rune, p int) bool {
	return p >= 2 && runes[p-1] == '\n' && runes[p-2] == '\n'
}

func isSentenceEnd(runes []rune, p int) bool {
	if p < 1 {
		return false
	}
	switch runes[p-1] {
	case '\n', '。', '！', '？':
		return true
	case ' ':
		if p < 2 {
			return false
		}
		switch runes[p-2] {
		case '.', '!', '?':
			return true
		}
	}
	return false
}

func isWordEnd(runes []rune, p int) bool {
	return p >= 1 && unicode.IsSpace(runes[p-1])
}

// Split is a convenience wrapper around New and Splitter.Split.
func Split(text string, maxSize, overlap int) ([]string, error) {
	s, err := New(maxSize, overlap)
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}
