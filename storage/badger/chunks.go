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

package badger

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// maxConflictRetries bounds how often a write transaction is replayed after
// a badger.ErrConflict caused by a concurrent writer on the same namespace.
const maxConflictRetries = 5

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
//
// Chunk records are written through write batches, which are not bounded by
// Badger's transaction size, and become visible when the namespace info
// record commits. Until then their IDs sit in a hidden set that readers skip
// and that recovery deletes on the next open.
type ChunkRepository struct {
	backend     *Backend
	idSeq       *badger.Sequence
	ownsBackend bool
	locks       namespaceLocks
	logger      *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a ChunkRepository over an open backend and
// finishes any write or clear interrupted by a crash. The caller keeps
// ownership of the backend.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	repo := &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
		logger:  slog.Default().With("component", "chunk-repository"),
	}
	if err := repo.recover(); err != nil {
		return nil, errors.Join(fmt.Errorf("recovering interrupted writes: %w", err), idSeq.Release())
	}
	return repo, nil
}

// NewRepository opens (or creates) a database directory and returns a
// repository that closes it on Close.
func NewRepository(path string) (storage.ChunkRepository, error) {
	return openOwned(path, false)
}

func openOwned(path string, inMemory bool) (*ChunkRepository, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	repo, err := NewChunkRepository(backend)
	if err != nil {
		return nil, errors.Join(err, backend.Close())
	}
	repo.ownsBackend = true
	return repo, nil
}

// Close releases the ID sequence and, for repositories created by
// NewRepository, the database.
func (r *ChunkRepository) Close() error {
	err := r.idSeq.Release()
	if r.ownsBackend {
		err = errors.Join(err, r.backend.Close())
	}
	return err
}

// recover deletes the chunks of interrupted clears and every hidden set left
// behind by an interrupted write.
func (r *ChunkRepository) recover() error {
	clearing, err := r.backend.Keys([]byte(clearingPrefix))
	if err != nil {
		return err
	}
	for _, key := range clearing {
		ns := namespaceFromClearingKey(key)
		if err := r.purge(ns); err != nil {
			return err
		}
		if err := r.deleteKey(key); err != nil {
			return err
		}
		r.logger.Info("finished interrupted clear", "namespace", ns)
	}

	hidden, err := r.backend.Keys([]byte(hiddenPrefix))
	if err != nil {
		return err
	}
	for _, key := range hidden {
		ns := namespaceFromHiddenKey(key)
		ids, err := r.readHiddenSet(key)
		if err != nil {
			return err
		}
		if err := r.dropHidden(ns, key, ids); err != nil {
			return err
		}
		r.logger.Info("removed hidden chunks", "namespace", ns, "chunks", len(ids))
	}
	return nil
}

// Upsert appends chunks and their embeddings to a namespace.
func (r *ChunkRepository) Upsert(ctx context.Context, ns core.Namespace, chunks []core.Chunk, embeddings [][]float32) ([]*core.ChunkRecord, error) {
	if err := checkWrite(ctx, ns, chunks, embeddings); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []*core.ChunkRecord{}, nil
	}

	unlock := r.locks.lock(ns)
	defer unlock()
	records, err := r.add(ctx, ns, chunks, embeddings, nil)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("upserted chunks", "namespace", ns, "count", len(records))
	return records, nil
}

// ReplaceSource swaps the records of source in ns for chunks.
func (r *ChunkRepository) ReplaceSource(ctx context.Context, ns core.Namespace, source string, chunks []core.Chunk, embeddings [][]float32) ([]*core.ChunkRecord, int, error) {
	if err := checkWrite(ctx, ns, chunks, embeddings); err != nil {
		return nil, 0, err
	}
	for i, c := range chunks {
		if c.Source != source {
			return nil, 0, fmt.Errorf("%w: chunk %d has source %q, replacing %q", storage.ErrSourceMismatch, i, c.Source, source)
		}
	}

	unlock := r.locks.lock(ns)
	defer unlock()
	retired, err := r.sourceIDs(ctx, ns, source)
	if err != nil {
		return nil, 0, err
	}
	if len(chunks) == 0 && len(retired) == 0 {
		return []*core.ChunkRecord{}, 0, nil
	}
	records, err := r.add(ctx, ns, chunks, embeddings, retired)
	if err != nil {
		return nil, 0, err
	}
	if records == nil {
		records = []*core.ChunkRecord{}
	}
	r.logger.Debug("replaced source", "namespace", ns, "source", source, "removed", len(retired), "added", len(records))
	return records, len(retired), nil
}

// DeleteSource removes the records of source from ns.
func (r *ChunkRepository) DeleteSource(ctx context.Context, ns core.Namespace, source string) (int, error) {
	if core.ValidateNamespace(ns) != nil {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	unlock := r.locks.lock(ns)
	defer unlock()
	retired, err := r.sourceIDs(ctx, ns, source)
	if err != nil || len(retired) == 0 {
		return 0, err
	}
	if err := r.write(ctx, ns, nil, retired); err != nil {
		return 0, err
	}
	r.logger.Debug("deleted source", "namespace", ns, "source", source, "count", len(retired))
	return len(retired), nil
}

func checkWrite(ctx context.Context, ns core.Namespace, chunks []core.Chunk, embeddings [][]float32) error {
	if err := core.ValidateNamespace(ns); err != nil {
		return err
	}
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks, %d embeddings", storage.ErrCountMismatch, len(chunks), len(embeddings))
	}
	return ctx.Err()
}

// sourceIDs lists the visible records of ns that came from source.
func (r *ChunkRepository) sourceIDs(ctx context.Context, ns core.Namespace, source string) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanVisible(ctx, tx, ns, func(record *core.ChunkRecord) {
			if record.Source == source {
				ids = append(ids, record.Id)
			}
		})
	}, false)
	return ids, err
}

// loadInfo returns the info record of ns, or nil.
func (r *ChunkRepository) loadInfo(ns core.Namespace) (*core.NamespaceInfo, error) {
	var info *core.NamespaceInfo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		info, err = readInfo(tx, ns)
		return err
	}, false)
	return info, err
}

// add builds records for chunks and writes them, retiring the given
// records. The caller holds the namespace lock.
func (r *ChunkRepository) add(ctx context.Context, ns core.Namespace, chunks []core.Chunk, embeddings [][]float32, retired []core.ID) ([]*core.ChunkRecord, error) {
	info, err := r.loadInfo(ns)
	if err != nil {
		return nil, err
	}
	records, err := r.buildRecords(ns, info, chunks, embeddings, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := r.write(ctx, ns, records, retired); err != nil {
		return nil, err
	}
	return records, nil
}

// write publishes records and retires the given IDs. The caller holds the
// namespace lock.
//
// New records are first listed in a hidden set, then written in batches, and
// published together with the retirement when the info record commits. The
// retired records move to a hidden set of their own in that same commit and
// are deleted afterwards.
func (r *ChunkRepository) write(ctx context.Context, ns core.Namespace, records []*core.ChunkRecord, retired []core.ID) error {
	var (
		stagedKey []byte
		err       error
	)
	if len(records) > 0 {
		stagedKey, err = r.stage(ctx, ns, records)
		if err != nil {
			return err
		}
	}

	var retiredKey []byte
	if len(retired) > 0 {
		token, err := r.nextID()
		if err != nil {
			return r.discard(ns, stagedKey, records, err)
		}
		retiredKey = makeHiddenKey(ns, token)
	}

	now := time.Now().UTC()
	err = r.retryConflicts(func() error {
		return r.backend.WithTx(func(tx *badger.Txn) error {
			info, err := readInfo(tx, ns)
			if err != nil {
				return err
			}
			if info == nil {
				info = &core.NamespaceInfo{Namespace: ns, CreatedAt: now}
			}
			if stagedKey != nil {
				if err := tx.Delete(stagedKey); err != nil {
					return err
				}
			}
			if retiredKey != nil {
				if err := tx.Set(retiredKey, storage.MarshalIDs(retired)); err != nil {
					return err
				}
			}

			info.Chunks += len(records) - len(retired)
			if info.Chunks <= 0 {
				if err := tx.Delete(makeNamespaceKey(ns)); err != nil {
					return err
				}
				return tx.Commit()
			}
			if len(records) > 0 {
				info.Dimension = len(records[0].Vector)
			}
			info.UpdatedAt = now
			if err := tx.Set(makeNamespaceKey(ns), storage.MarshalNamespaceInfo(info)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
	})
	if err != nil {
		return r.discard(ns, stagedKey, records, err)
	}

	if retiredKey != nil {
		if err := r.dropHidden(ns, retiredKey, retired); err != nil {
			// Hidden from readers already; the next open deletes them.
			r.logger.Warn("deleting retired chunks", "namespace", ns, "chunks", len(retired), "error", err)
		}
	}
	return nil
}

func (r *ChunkRepository) buildRecords(ns core.Namespace, info *core.NamespaceInfo, chunks []core.Chunk, embeddings [][]float32, now time.Time) ([]*core.ChunkRecord, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	dim := len(embeddings[0])
	if info != nil && info.Dimension != 0 {
		dim = info.Dimension
	}
	for i, e := range embeddings {
		if len(e) == 0 || len(e) != dim {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, namespace %s uses %d",
				storage.ErrDimensionMismatch, i, len(e), ns, dim)
		}
	}

	docIDs := documentIDs(chunks)
	records := make([]*core.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		id, err := r.nextID()
		if err != nil {
			return nil, err
		}
		record := &core.ChunkRecord{
			Id:         id,
			Namespace:  ns,
			DocumentId: docIDs[chunk.Source],
			Source:     chunk.Source,
			Index:      chunk.Index,
			Contents:   chunk.Text,
			Vector:     normalize(embeddings[i]),
			InsertedAt: now,
		}
		if err := core.ValidateChunkRecord(record); err != nil {
			return nil, err
		}
		records[i] = record
	}
	return records, nil
}

// stage hides the IDs of records and writes them in batches. It returns the
// key of the hidden set.
func (r *ChunkRepository) stage(ctx context.Context, ns core.Namespace, records []*core.ChunkRecord) ([]byte, error) {
	ids := make([]core.ID, len(records))
	for i, rec := range records {
		ids[i] = rec.Id
	}
	key := makeHiddenKey(ns, ids[0])
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, storage.MarshalIDs(ids)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	err = r.backend.WithWriteBatch(func(wb *badger.WriteBatch) error {
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeChunkKey(ns, rec.Id), storage.MarshalChunkRecord(rec)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, r.discard(ns, key, records, err)
	}
	return key, nil
}

// discard deletes staged records after a failed write and returns cause.
func (r *ChunkRepository) discard(ns core.Namespace, key []byte, records []*core.ChunkRecord, cause error) error {
	if key == nil {
		return cause
	}
	ids := make([]core.ID, len(records))
	for i, rec := range records {
		ids[i] = rec.Id
	}
	if err := r.dropHidden(ns, key, ids); err != nil {
		r.logger.Warn("discarding staged chunks", "namespace", ns, "chunks", len(ids), "error", err)
	}
	return cause
}

// dropHidden deletes the listed chunk records, then their hidden set.
func (r *ChunkRepository) dropHidden(ns core.Namespace, key []byte, ids []core.ID) error {
	err := r.backend.WithWriteBatch(func(wb *badger.WriteBatch) error {
		for _, id := range ids {
			if err := wb.Delete(makeChunkKey(ns, id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.deleteKey(key)
}

func (r *ChunkRepository) deleteKey(key []byte) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (r *ChunkRepository) readHiddenSet(key []byte) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ids, err = storage.UnmarshalIDs(val)
			return err
		})
	}, false)
	return ids, err
}

// purge deletes every chunk record and hidden set of ns.
func (r *ChunkRepository) purge(ns core.Namespace) error {
	if _, err := r.backend.DeletePrefix(makeChunkPrefix(ns)); err != nil {
		return err
	}
	_, err := r.backend.DeletePrefix(makeHiddenPrefix(ns))
	return err
}

// documentIDs derives one content ID per source from the source name and the
// texts written for it.
func documentIDs(chunks []core.Chunk) map[string]core.ID {
	texts := make(map[string]*strings.Builder)
	for _, c := range chunks {
		sb, ok := texts[c.Source]
		if !ok {
			sb = &strings.Builder{}
			sb.WriteString(c.Source)
			texts[c.Source] = sb
		}
		sb.WriteByte(0)
		sb.WriteString(c.Text)
	}
	ids := make(map[string]core.ID, len(texts))
	for source, sb := range texts {
		ids[source] = core.IDFromContent(sb.String())
	}
	return ids
}

func (r *ChunkRepository) nextID() (core.ID, error) {
	next, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		next, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

func (r *ChunkRepository) retryConflicts(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		r.logger.Debug("write conflict, retrying", "attempt", attempt+1)
	}
	return err
}

// Query returns the k records of ns most similar to vector.
func (r *ChunkRepository) Query(ctx context.Context, ns core.Namespace, vector []float32, k int) ([]*core.SearchResult, error) {
	if k <= 0 || core.ValidateNamespace(ns) != nil {
		return []*core.SearchResult{}, nil
	}

	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		info, err := readInfo(tx, ns)
		if err != nil || info == nil {
			return err
		}
		if len(vector) != info.Dimension {
			return fmt.Errorf("%w: query has %d dimensions, namespace %s uses %d",
				storage.ErrDimensionMismatch, len(vector), ns, info.Dimension)
		}
		query := normalize(vector)

		return scanVisible(ctx, tx, ns, func(record *core.ChunkRecord) {
			results = append(results, &core.SearchResult{
				Record: record,
				Score:  dotProduct(query, record.Vector),
			})
		})
	}, false)
	if err != nil {
		return nil, err
	}

	// Stable sort keeps insertion order among equal scores
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(results) > k {
		results = results[:k]
	}
	if results == nil {
		results = []*core.SearchResult{}
	}
	return results, nil
}

// Clear deletes the info record of ns, which hides its chunks at once, then
// the chunks themselves. A clear interrupted in between is finished on the
// next open.
func (r *ChunkRepository) Clear(ctx context.Context, ns core.Namespace) error {
	if core.ValidateNamespace(ns) != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.locks.lock(ns)
	defer unlock()
	marker := makeClearingKey(ns)
	err := r.retryConflicts(func() error {
		return r.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Delete(makeNamespaceKey(ns)); err != nil {
				return err
			}
			if err := tx.Set(marker, nil); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
	})
	if err != nil {
		return err
	}
	if err := r.purge(ns); err != nil {
		return err
	}
	if err := r.deleteKey(marker); err != nil {
		return err
	}
	r.logger.Debug("cleared namespace", "namespace", ns)
	return nil
}

// ListNamespaces returns namespace keys with the given prefix in key order.
func (r *ChunkRepository) ListNamespaces(ctx context.Context, prefix string) ([]core.Namespace, error) {
	namespaces := []core.Namespace{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(namespacePrefix + prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			namespaces = append(namespaces, namespaceFromKey(iter.Item().Key()))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return namespaces, nil
}

// Count returns the number of chunks in ns.
func (r *ChunkRepository) Count(ctx context.Context, ns core.Namespace) (int, error) {
	info, err := r.Info(ctx, ns)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Chunks, nil
}

// Info returns the bookkeeping record of ns.
func (r *ChunkRepository) Info(ctx context.Context, ns core.Namespace) (*core.NamespaceInfo, error) {
	if core.ValidateNamespace(ns) != nil {
		return nil, storage.ErrNotFound
	}
	var info *core.NamespaceInfo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		info, err = readInfo(tx, ns)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, storage.ErrNotFound
	}
	return info, nil
}

// Chunks returns every record of ns in insertion order.
func (r *ChunkRepository) Chunks(ctx context.Context, ns core.Namespace) ([]*core.ChunkRecord, error) {
	records := []*core.ChunkRecord{}
	if core.ValidateNamespace(ns) != nil {
		return records, nil
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanVisible(ctx, tx, ns, func(record *core.ChunkRecord) {
			records = append(records, record)
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceVectors rewrites the vectors of existing records of ns. The records
// are reissued under fresh IDs, in their original order, and swapped in
// through the same staged write as Upsert so a namespace of any size can be
// reembedded without a partial result becoming visible.
func (r *ChunkRepository) ReplaceVectors(ctx context.Context, ns core.Namespace, records []*core.ChunkRecord) error {
	if err := core.ValidateNamespace(ns); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dim := len(records[0].Vector)
	for _, rec := range records {
		if len(rec.Vector) == 0 || len(rec.Vector) != dim {
			return fmt.Errorf("%w: record %d has %d dimensions, batch uses %d",
				storage.ErrDimensionMismatch, rec.Id, len(rec.Vector), dim)
		}
	}

	unlock := r.locks.lock(ns)
	defer unlock()
	info, err := r.loadInfo(ns)
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("namespace %s: %w", ns, storage.ErrNotFound)
	}
	if dim != info.Dimension && len(records) != info.Chunks {
		return fmt.Errorf("%w: changing dimension %d to %d requires all %d chunks",
			storage.ErrDimensionMismatch, info.Dimension, dim, info.Chunks)
	}

	ordered := slices.Clone(records)
	slices.SortFunc(ordered, func(a, b *core.ChunkRecord) int {
		return cmp.Compare(a.Id, b.Id)
	})
	reissued := make([]*core.ChunkRecord, len(ordered))
	retired := make([]core.ID, len(ordered))
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		hidden, err := hiddenIDs(tx, ns)
		if err != nil {
			return err
		}
		for i, rec := range ordered {
			stored, err := readChunk(tx, makeChunkKey(ns, rec.Id))
			if err != nil {
				return err
			}
			if _, gone := hidden[rec.Id]; stored == nil || gone {
				return fmt.Errorf("chunk %d in %s: %w", rec.Id, ns, storage.ErrNotFound)
			}
			retired[i] = stored.Id
			stored.Vector = normalize(rec.Vector)
			reissued[i] = stored
		}
		return nil
	}, false)
	if err != nil {
		return err
	}
	for _, rec := range reissued {
		if rec.Id, err = r.nextID(); err != nil {
			return err
		}
	}

	if err := r.write(ctx, ns, reissued, retired); err != nil {
		return err
	}
	r.logger.Debug("replaced vectors", "namespace", ns, "count", len(reissued), "dimension", dim)
	return nil
}

// readInfo returns nil without error when the namespace does not exist.
func readInfo(tx *badger.Txn, ns core.Namespace) (*core.NamespaceInfo, error) {
	item, err := tx.Get(makeNamespaceKey(ns))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var info *core.NamespaceInfo
	err = item.Value(func(val []byte) error {
		info, err = storage.UnmarshalNamespaceInfo(val)
		return err
	})
	return info, err
}

// readChunk returns nil without error when the key does not exist.
func readChunk(tx *badger.Txn, key []byte) (*core.ChunkRecord, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record *core.ChunkRecord
	err = item.Value(func(val []byte) error {
		record, err = storage.UnmarshalChunkRecord(val)
		return err
	})
	return record, err
}

// scanVisible calls fn for the committed records of ns, skipping hidden ones.
// A namespace without an info record has none.
func scanVisible(ctx context.Context, tx *badger.Txn, ns core.Namespace, fn func(*core.ChunkRecord)) error {
	info, err := readInfo(tx, ns)
	if err != nil || info == nil {
		return err
	}
	hidden, err := hiddenIDs(tx, ns)
	if err != nil {
		return err
	}
	return scanChunks(ctx, tx, ns, func(record *core.ChunkRecord) {
		if _, skip := hidden[record.Id]; !skip {
			fn(record)
		}
	})
}

func hiddenIDs(tx *badger.Txn, ns core.Namespace) (map[core.ID]struct{}, error) {
	hidden := make(map[core.ID]struct{})
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeHiddenPrefix(ns)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			ids, err := storage.UnmarshalIDs(val)
			if err != nil {
				return err
			}
			for _, id := range ids {
				hidden[id] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return hidden, nil
}

func scanChunks(ctx context.Context, tx *badger.Txn, ns core.Namespace, fn func(*core.ChunkRecord)) error {
	prefix := makeChunkPrefix(ns)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := iter.Item()
		if !bytes.HasPrefix(item.Key(), prefix) {
			continue
		}
		var record *core.ChunkRecord
		err := item.Value(func(val []byte) error {
			var err error
			record, err = storage.UnmarshalChunkRecord(val)
			return err
		})
		if err != nil {
			return err
		}
		fn(record)
	}
	return nil
}
