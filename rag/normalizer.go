package rag

import (
	"sort"
	"strings"
)

// defaultSynonyms maps colloquial terms to the wording used by the
// legislation. Keys are matched case-insensitively as substrings.
var defaultSynonyms = map[string]string{
	"aluguel":      "locação de bens imóveis",
	"frete":        "transporte de carga",
	"remédio":      "medicamentos",
	"comida":       "gêneros alimentícios",
	"cesta básica": "alimentos destinados ao consumo humano",
	"carro":        "veículo automotor",
	"imposto novo": "IBS e CBS",
	"nota fiscal":  "documento fiscal eletrônico",
}

// Normalizer rewrites queries before retrieval by appending the legal term
// for every colloquial term found. Expansion is additive: the original
// wording stays in place so keyword search still matches on it.
type Normalizer struct {
	synonyms map[string]string
}

// NewNormalizer returns a normalizer with the default legal synonym table.
func NewNormalizer() *Normalizer {
	return &Normalizer{synonyms: defaultSynonyms}
}

// NewNormalizerWithSynonyms returns a normalizer with a custom table.
func NewNormalizerWithSynonyms(synonyms map[string]string) *Normalizer {
	return &Normalizer{synonyms: synonyms}
}

// Normalize appends the canonical term for each matched colloquial term.
// A canonical term already present in the query is not appended again, which
// makes repeated application a no-op.
func (n *Normalizer) Normalize(query string) string {
	lower := strings.ToLower(query)

	// Sorted keys keep the expansion order deterministic.
	keys := make([]string, 0, len(n.synonyms))
	for k := range n.synonyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	expanded := query
	for _, colloquial := range keys {
		canonical := n.synonyms[colloquial]
		if !strings.Contains(lower, strings.ToLower(colloquial)) {
			continue
		}
		if strings.Contains(strings.ToLower(expanded), strings.ToLower(canonical)) {
			continue
		}
		expanded += " " + canonical
	}
	return expanded
}
