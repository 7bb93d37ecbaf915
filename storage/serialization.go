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

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/docent/core"
)

var idSliceMUS = ord.NewSliceSer[core.ID](core.IDMUS)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalIDs serializes a list of IDs to bytes.
func MarshalIDs(ids []core.ID) []byte {
	buf := make([]byte, idSliceMUS.Size(ids))
	idSliceMUS.Marshal(ids, buf)
	return buf
}

// UnmarshalIDs deserializes a list of IDs from bytes.
func UnmarshalIDs(data []byte) ([]core.ID, error) {
	ids, _, err := idSliceMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return ids, nil
}

// MarshalChunkRecord serializes a ChunkRecord to bytes.
func MarshalChunkRecord(record *core.ChunkRecord) []byte {
	buf := make([]byte, core.ChunkRecordMUS.Size(*record))
	core.ChunkRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (*core.ChunkRecord, error) {
	record, _, err := core.ChunkRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalNamespaceInfo serializes a NamespaceInfo to bytes.
func MarshalNamespaceInfo(info *core.NamespaceInfo) []byte {
	buf := make([]byte, core.NamespaceInfoMUS.Size(*info))
	core.NamespaceInfoMUS.Marshal(*info, buf)
	return buf
}

// UnmarshalNamespaceInfo deserializes a NamespaceInfo from bytes.
func UnmarshalNamespaceInfo(data []byte) (*core.NamespaceInfo, error) {
	info, _, err := core.NamespaceInfoMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &info, nil
}
