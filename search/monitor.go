package search

import "github.com/poiesic/topiary/core"

// QueryMonitor provides hooks to observe a similarity query.
// Implement this interface to track intermediate stages during a search.
type QueryMonitor interface {
	Start(query, topic string)
	AfterQueryEmbedding(vector []float32)
	Finish(hits []*core.RelationshipHit)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)  {}
func (n *noopMonitor) Finish(_ []*core.RelationshipHit) {}
