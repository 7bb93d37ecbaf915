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

// Package chat answers questions about a namespace's documents.
//
// An answer is produced by an explicit three stage pipeline:
//
//  1. Rewriter condenses the conversation history and a follow-up question
//     into a standalone question. With no history the question is used as is.
//  2. A Retriever returns the chunks nearest to the standalone question.
//  3. Synthesizer asks the generation model for an answer grounded in those
//     chunks only.
//
// Pipeline.Answer runs the stages against a session.Session and records the
// turn only when every stage succeeds. Failures are reported as *StageError
// and leave the session untouched.
package chat
