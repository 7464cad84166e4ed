package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/topiary/core"
)

// DefaultContextBytes bounds the context assembled for answer generation.
const DefaultContextBytes = 8192

// BuildContext renders hits as a bounded plain-text context for the
// generation capability, best hits first. Hits that would push the output
// past maxBytes are dropped; the first hit is always included. A maxBytes
// of zero or less applies DefaultContextBytes.
func BuildContext(hits []*core.RelationshipHit, maxBytes int) string {
	if maxBytes <= 0 {
		maxBytes = DefaultContextBytes
	}

	var sb strings.Builder
	for i, hit := range hits {
		line := renderHit(hit)
		if i > 0 && sb.Len()+len(line) > maxBytes {
			break
		}
		sb.WriteString(line)
	}
	return sb.String()
}

func renderHit(hit *core.RelationshipHit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- [%.2f] %s -> %s: %s\n",
		hit.Score, hit.Source.Name, hit.Target.Name, hit.Relationship.Description)
	if hit.Source.Description != "" {
		fmt.Fprintf(&sb, "  %s: %s\n", hit.Source.Name, hit.Source.Description)
	}
	if hit.Target.Description != "" {
		fmt.Fprintf(&sb, "  %s: %s\n", hit.Target.Name, hit.Target.Description)
	}
	return sb.String()
}
