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

package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrCountMismatch indicates that chunks and embeddings differ in length.
	ErrCountMismatch = errors.New("chunk and embedding counts differ")

	// ErrDimensionMismatch indicates a vector whose dimension disagrees with
	// the namespace's established dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrSourceMismatch indicates a chunk whose source differs from the
	// source being replaced.
	ErrSourceMismatch = errors.New("chunk source mismatch")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
