package types

// Origin identifies which retrieval path produced a result.
type Origin string

const (
	// OriginSemantic marks results returned by the dense vector store.
	OriginSemantic Origin = "semantic"
	// OriginKeyword marks results returned by the sparse keyword store.
	OriginKeyword Origin = "keyword"
)

// Result represents a single record returned from a query.
type Result struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`

	// The cosine similarity between the query and the record.
	// Populated for semantic results only. The value is in the range [0, 1],
	// where 1 means the query and the record are identical.
	Similarity float32 `json:"similarity,omitempty"`

	// Relevance is the keyword match score assigned by the sparse store.
	// Populated for keyword results only. Its scale is store-specific and is
	// never compared against Similarity.
	Relevance float32 `json:"relevance,omitempty"`

	// Origin tags the retrieval path that produced this result.
	Origin Origin `json:"origin,omitempty"`
}

// Document is the unit handed to the sparse store for indexing.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}
