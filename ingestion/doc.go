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

// Package ingestion builds a namespace's knowledge base from document text.
//
// Pipeline.Ingest splits text with the chunker, embeds the chunks in
// batches on an ants worker pool and writes them to the chunk repository in
// one all-or-nothing write. The caller waits for the embedding batches; if
// its context ends first Ingest returns immediately and the batches' results
// are discarded. A failure at any stage leaves the repository unchanged.
//
// Pipeline.Replace does the same for a document that may already be stored:
// the chunks of its previous version are dropped in the same write.
package ingestion
