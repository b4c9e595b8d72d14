package types

import (
	"fmt"
	"strings"
)

// contextHeader opens every fused context block handed to the agent.
const contextHeader = "--- RESULTADOS DA LEGISLAÇÃO ---"

// defaultParentContext labels results whose provenance carries no
// article or matrix reference.
const defaultParentContext = "Contexto Geral"

// Context is the fused, ranked output of a hybrid retrieval. Results keep the
// fusion order: every semantic result precedes every keyword result.
type Context struct {
	Results []Result `json:"results"`

	// DenseDegraded and SparseDegraded report that the corresponding store
	// failed or timed out and its results were treated as empty.
	DenseDegraded  bool `json:"dense_degraded,omitempty"`
	SparseDegraded bool `json:"sparse_degraded,omitempty"`
}

// Degraded reports whether either retrieval path was unavailable.
func (c *Context) Degraded() bool {
	return c.DenseDegraded || c.SparseDegraded
}

// String renders the context as labeled, provenance-annotated text blocks,
// ready for inclusion in a prompt.
func (c *Context) String() string {
	var sb strings.Builder
	sb.WriteString(contextHeader)
	sb.WriteString("\n")
	for _, r := range c.Results {
		parent := r.Metadata.ParentContext
		if parent == "" {
			parent = defaultParentContext
		}
		switch r.Origin {
		case OriginKeyword:
			sb.WriteString(fmt.Sprintf("[Keyword Match: %s] %s\n\n", parent, r.Content))
		default:
			sb.WriteString(fmt.Sprintf("[Fonte: %s] %s\n\n", parent, r.Content))
		}
	}
	return sb.String()
}
