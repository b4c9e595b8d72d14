package engine

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder produces embeddings through an OpenAI-compatible API, which
// covers local inference servers exposing multilingual sentence models.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIEmbedder probes the model once with a test embedding to learn the
// vector dimensionality, which is then enforced on every store write.
func NewOpenAIEmbedder(client *openai.Client, model string) (*OpenAIEmbedder, error) {
	e := &OpenAIEmbedder{client: client, model: model}

	probe, err := e.Embed(context.Background(), "test")
	if err != nil {
		return nil, fmt.Errorf("failed to probe embedding dimensions: %w", err)
	}
	e.dims = len(probe)
	return e, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx,
		openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(e.model),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("error getting embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	embedding := resp.Data[0].Embedding
	if e.dims > 0 && len(embedding) != e.dims {
		return nil, fmt.Errorf("embedding has %d dimensions, model previously returned %d", len(embedding), e.dims)
	}
	return embedding, nil
}
