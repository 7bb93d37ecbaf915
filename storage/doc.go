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

// Package storage provides the storage abstraction layer for docent.
//
// ChunkRepository is the vector store contract: namespace-scoped upsert,
// per-source replacement, nearest-neighbour query, clear and listing. The core pipelines depend on
// this interface only; storage/badger provides the persistent implementation
// and an in-memory variant for tests.
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface:
//
//	repo, err := badger.NewRepository("/path/to/db")  // storage.ChunkRepository
//
// # Namespaces
//
// A namespace is one user's knowledge base. Namespaces are isolated by key
// prefix rather than by a global lock, so operations on different namespaces
// never observe each other. Writers of one namespace are serialized. Query and Clear treat a missing namespace as
// empty; only Upsert rejects an invalid key.
//
// # Usage
//
//	repo, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	records, err := repo.Upsert(ctx, "user_1", chunks, vectors)
//	hits, err := repo.Query(ctx, "user_1", queryVector, 4)
//
// # Write Size
//
// A write is not bounded by a single database transaction. Records are
// staged out of sight and published by one small commit, so a failed or
// interrupted write leaves nothing behind once the store is reopened.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Serialization
//
// Records are encoded with the mus serializers generated into core.
package storage
