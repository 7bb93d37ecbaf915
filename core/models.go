package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Namespace is the key of one user's knowledge base. The core treats it as
// an opaque string and only ever compares prefixes.
type Namespace string

// UserNamespacePrefix is the prefix shared by all per-user namespaces.
const UserNamespacePrefix = "user_"

// NamespaceForUser returns the namespace key owned by the given user.
func NamespaceForUser(userID int64) Namespace {
	return Namespace(UserNamespacePrefix + strconv.FormatInt(userID, 10))
}

// String implements fmt.Stringer.
func (n Namespace) String() string {
	return string(n)
}

// Chunk is a bounded slice of a source document, the unit of retrieval.
type Chunk struct {
	Text   string
	Source string // Name of the document the text came from
	Index  int    // Position of the chunk within its document
}

// ChunkRecord is a chunk as persisted in a namespace, together with its embedding.
type ChunkRecord struct {
	Id         ID
	Namespace  Namespace
	DocumentId ID // IDFromContent of the source name and its chunk texts
	Source     string
	Index      int
	Contents   string
	Vector     []float32
	InsertedAt time.Time
}

// Chunk returns the chunk view of the record.
func (r *ChunkRecord) Chunk() Chunk {
	return Chunk{Text: r.Contents, Source: r.Source, Index: r.Index}
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleHuman is the user asking questions.
	RoleHuman Role = iota + 1
	// RoleAssistant is the generated answer.
	RoleAssistant
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleHuman:
		return "human"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is a single message in a conversation.
type Turn struct {
	Role Role
	Text string
}

// SearchResult represents a retrieved chunk with its similarity score.
type SearchResult struct {
	Record *ChunkRecord
	Score  float32
}

// NamespaceInfo is the bookkeeping record kept alongside a namespace's chunks.
type NamespaceInfo struct {
	Namespace Namespace
	Dimension int // Established embedding dimension; every vector must match
	Chunks    int
	CreatedAt time.Time
	UpdatedAt time.Time
}
