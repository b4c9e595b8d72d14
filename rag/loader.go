package rag

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/taxrecall/taxrecall/rag/types"
)

// Rate fact templates. Which one applies is decided by the origin/destination
// equality test: a self-pair is an intra-jurisdiction rate.
const (
	intraRateTemplate = "A alíquota interna padrão de ICMS no estado de %s é de %s."
	interRateTemplate = "A alíquota interestadual de ICMS em operações saindo de %s com destino a %s é de %s."
)

// Sentinel header artifacts stripped from the matrix before processing.
const (
	sentinelRow    = "origem"
	sentinelColumn = "destino"
)

// IngestReport summarises a batch ingestion.
type IngestReport struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// LoadRateMatrix reads a ';'-delimited origin × destination rate matrix and
// writes one fact per usable cell through the indexer. The first row and the
// first column hold jurisdiction labels. Empty or non-numeric cells are
// skipped and counted, never aborting the batch.
func LoadRateMatrix(ctx context.Context, r io.Reader, source string, ix *DualIndexer) (IngestReport, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return IngestReport{}, fmt.Errorf("failed to parse rate matrix: %w", err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return IngestReport{}, fmt.Errorf("rate matrix needs at least one origin and one destination")
	}

	header := rows[0]
	report := IngestReport{}

	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		origin := strings.ToUpper(strings.TrimSpace(row[0]))
		if origin == "" || strings.EqualFold(origin, sentinelRow) {
			continue
		}

		for col := 1; col < len(row) && col < len(header); col++ {
			destination := strings.ToUpper(strings.TrimSpace(header[col]))
			if destination == "" || strings.EqualFold(destination, sentinelColumn) {
				continue
			}

			cell := strings.TrimSpace(row[col])
			if cell == "" {
				report.Skipped++
				continue
			}

			rate, err := parseRate(cell)
			if err != nil {
				xlog.Warn("Skipping malformed rate cell",
					"origin", origin, "destination", destination, "cell", cell, "error", err)
				report.Skipped++
				continue
			}

			fact := rateFact(origin, destination, rate, source)
			if err := ix.Index(ctx, fact); err != nil {
				return report, fmt.Errorf("failed to index rate fact %s→%s: %w", origin, destination, err)
			}
			report.Inserted++

			if report.Inserted%100 == 0 {
				xlog.Info("Rate matrix ingestion progress", "inserted", report.Inserted)
			}
		}
	}

	xlog.Info("Rate matrix ingested", "source", source,
		"inserted", report.Inserted, "skipped", report.Skipped)
	return report, nil
}

// LoadRuleFacts ingests declarative rule statements as individual facts.
// Blank statements are skipped and counted.
func LoadRuleFacts(ctx context.Context, statements []string, source string, ix *DualIndexer) (IngestReport, error) {
	report := IngestReport{}
	for _, statement := range statements {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			report.Skipped++
			continue
		}
		rec := Record{
			ID:      uuid.NewString(),
			Content: statement,
			Metadata: types.Metadata{
				Kind:          types.KindDocumentChunk,
				Source:        source,
				ParentContext: unscopedContext,
			},
		}
		if err := ix.Index(ctx, rec); err != nil {
			return report, fmt.Errorf("failed to index rule fact: %w", err)
		}
		report.Inserted++
	}
	return report, nil
}

// rateFact renders one matrix cell as an atomic natural-language statement
// with full tabular provenance.
func rateFact(origin, destination, rate, source string) Record {
	var content string
	if origin == destination {
		content = fmt.Sprintf(intraRateTemplate, origin, rate)
	} else {
		content = fmt.Sprintf(interRateTemplate, origin, destination, rate)
	}
	return Record{
		ID:      uuid.NewString(),
		Content: content,
		Metadata: types.Metadata{
			Kind:          types.KindRateFact,
			Source:        source,
			ParentContext: fmt.Sprintf("Matriz ICMS %s→%s", origin, destination),
			Origin:        origin,
			Destination:   destination,
			Rate:          rate,
		},
	}
}

// parseRate validates a matrix cell and renders it as a percentage. Cells may
// use a decimal comma.
func parseRate(cell string) (string, error) {
	normalized := strings.TrimSuffix(cell, "%")
	normalized = strings.ReplaceAll(strings.TrimSpace(normalized), ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return "", fmt.Errorf("non-numeric rate %q", cell)
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%", nil
}
