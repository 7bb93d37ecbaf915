package badger

import (
	"encoding/binary"

	"github.com/poiesic/docent/core"
)

// Key prefixes for different data types. Namespace keys never contain ':',
// so a namespace's chunk prefix cannot match another namespace's keys.
const (
	namespacePrefix = "ns:"
	chunkPrefix     = "chk:"
	hiddenPrefix    = "hid:"
	clearingPrefix  = "clr:"
	chunkIDSeq      = "chkseq"
)

// makeNamespaceKey generates the key of a namespace's info record.
func makeNamespaceKey(ns core.Namespace) []byte {
	return []byte(namespacePrefix + string(ns))
}

// namespaceFromKey strips the info record prefix.
func namespaceFromKey(key []byte) core.Namespace {
	return core.Namespace(key[len(namespacePrefix):])
}

// makeChunkPrefix generates the prefix shared by all chunks of a namespace.
// Format: prefix:namespace:
func makeChunkPrefix(ns core.Namespace) []byte {
	return []byte(chunkPrefix + string(ns) + ":")
}

// makeChunkKey generates a key for a chunk record.
// Format: prefix:namespace:id, id in BigEndian so iteration follows insertion order.
func makeChunkKey(ns core.Namespace, id core.ID) []byte {
	prefix := makeChunkPrefix(ns)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeHiddenPrefix generates the prefix of a namespace's hidden ID sets.
// Format: prefix:namespace:
func makeHiddenPrefix(ns core.Namespace) []byte {
	return []byte(hiddenPrefix + string(ns) + ":")
}

// makeHiddenKey generates the key of one hidden ID set. The set lists chunk
// records that readers must skip: records still being written, or records
// already retired and awaiting deletion.
func makeHiddenKey(ns core.Namespace, token core.ID) []byte {
	prefix := makeHiddenPrefix(ns)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(token))
	return buf
}

// namespaceFromHiddenKey strips the prefix and the token of a hidden set key.
func namespaceFromHiddenKey(key []byte) core.Namespace {
	return core.Namespace(key[len(hiddenPrefix) : len(key)-9])
}

// makeClearingKey marks a namespace whose chunks are being deleted.
func makeClearingKey(ns core.Namespace) []byte {
	return []byte(clearingPrefix + string(ns))
}

func namespaceFromClearingKey(key []byte) core.Namespace {
	return core.Namespace(key[len(clearingPrefix):])
}
