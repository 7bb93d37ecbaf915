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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunkRecord indicates a ChunkRecord failed validation.
	ErrInvalidChunkRecord = errors.New("invalid chunk record")

	// ErrInvalidNamespace indicates a namespace key is empty or malformed.
	ErrInvalidNamespace = errors.New("invalid namespace")

	// ErrEmptyContent indicates the Contents field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptySource indicates the Source field is empty.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrInvalidRole indicates an invalid Role value.
	ErrInvalidRole = errors.New("invalid role")
)

// Pipeline stage errors. Callers match these with errors.Is to pick a
// user-facing message; the wrapped cause carries the backend detail.
var (
	// ErrEmbedding indicates the embedding backend was unavailable or
	// returned a malformed response.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRewrite indicates the follow-up question could not be condensed
	// into a standalone question.
	ErrRewrite = errors.New("question rewrite failed")

	// ErrSynthesis indicates the generation backend failed to produce an answer.
	ErrSynthesis = errors.New("answer synthesis failed")
)
