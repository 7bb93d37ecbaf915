package search

import (
	"github.com/poiesic/docent/core"
)

// SearchMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type SearchMonitor interface {
	Start(ns core.Namespace, question string)
	AfterEmbedding(vector []float32)
	AfterQuery(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Namespace, _ string)   {}
func (n *noopMonitor) AfterEmbedding(_ []float32)         {}
func (n *noopMonitor) AfterQuery(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)     {}
