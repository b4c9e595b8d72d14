package types

import (
	"fmt"
	"strconv"
)

// Kind discriminates the provenance schema of a record.
type Kind string

const (
	// KindRateFact is an atomic statement generated from a rate matrix cell
	// or a declarative rule.
	KindRateFact Kind = "rate-fact"
	// KindDocumentChunk is a passage extracted from a legal document.
	KindDocumentChunk Kind = "document-chunk"
)

// Metadata carries the structured provenance of a record. Both stores persist
// it alongside the content so that either retrieval path can cite its source.
type Metadata struct {
	Kind          Kind   `json:"kind"`
	Source        string `json:"source"`
	ParentContext string `json:"parent_context"`

	// Rate fact provenance.
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Rate        string `json:"rate,omitempty"`

	// Document chunk provenance.
	Page int `json:"page,omitempty"`
}

// Validate checks the per-kind schema. Records with invalid metadata are
// rejected at ingestion time, before any store write.
func (m Metadata) Validate() error {
	if m.Source == "" {
		return fmt.Errorf("metadata: source is required")
	}
	if m.ParentContext == "" {
		return fmt.Errorf("metadata: parent context is required")
	}
	switch m.Kind {
	case KindRateFact:
		if m.Origin == "" || m.Destination == "" || m.Rate == "" {
			return fmt.Errorf("metadata: rate fact requires origin, destination and rate")
		}
	case KindDocumentChunk:
		if m.Page < 0 {
			return fmt.Errorf("metadata: negative page number %d", m.Page)
		}
	default:
		return fmt.Errorf("metadata: unknown kind %q", m.Kind)
	}
	return nil
}

// ToMap flattens the metadata for stores that persist string key/value pairs.
func (m Metadata) ToMap() map[string]string {
	out := map[string]string{
		"kind":           string(m.Kind),
		"source":         m.Source,
		"parent_context": m.ParentContext,
	}
	if m.Origin != "" {
		out["origin"] = m.Origin
	}
	if m.Destination != "" {
		out["destination"] = m.Destination
	}
	if m.Rate != "" {
		out["rate"] = m.Rate
	}
	if m.Page > 0 {
		out["page"] = strconv.Itoa(m.Page)
	}
	return out
}

// MetadataFromMap is the inverse of ToMap. Unknown keys are ignored.
func MetadataFromMap(in map[string]string) Metadata {
	m := Metadata{
		Kind:          Kind(in["kind"]),
		Source:        in["source"],
		ParentContext: in["parent_context"],
		Origin:        in["origin"],
		Destination:   in["destination"],
		Rate:          in["rate"],
	}
	if p, err := strconv.Atoi(in["page"]); err == nil {
		m.Page = p
	}
	return m
}
