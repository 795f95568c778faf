// Package ingestion parses uploaded bank statements into the raw
// tabular form the normalizer accepts.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/opencredit-finance/kestrel/internal/normalize"
)

// ParseStatementCSV reads a CSV statement export into a RawTable. The
// first record is the header. Ragged rows are kept as-is; per-cell
// repair is the normalizer's job, so only an unreadable stream is an
// error here.
func ParseStatementCSV(data []byte) (normalize.RawTable, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return normalize.RawTable{}, fmt.Errorf("read header: %w", err)
	}

	table := normalize.RawTable{Columns: header}
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return normalize.RawTable{}, fmt.Errorf("line %d: %w", lineNum, err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// CashFlowSummary aggregates a statement's signed amount column the
// way the account-linking summary step does: positive values count as
// inflow, negative as outflow, unparsable cells are skipped.
type CashFlowSummary struct {
	Transactions int     `json:"transactions"`
	TotalInflow  float64 `json:"totalInflow"`
	TotalOutflow float64 `json:"totalOutflow"` // negative or zero
	NetFlow      float64 `json:"netFlow"`
}

// Summarize computes the cash-flow summary over a raw table's amount
// column, located by the same aliases the normalizer uses.
func Summarize(table normalize.RawTable) CashFlowSummary {
	idx := -1
	for _, alias := range []string{"amount", "amt", "transaction_amount"} {
		for i, col := range table.Columns {
			if strings.EqualFold(strings.TrimSpace(col), alias) {
				idx = i
				break
			}
		}
		if idx >= 0 {
			break
		}
	}

	var summary CashFlowSummary
	if idx < 0 {
		return summary
	}

	for _, row := range table.Rows {
		if idx >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(row[idx]), ",", ""), 64)
		if err != nil {
			continue
		}
		summary.Transactions++
		if v > 0 {
			summary.TotalInflow += v
		} else {
			summary.TotalOutflow += v
		}
		summary.NetFlow += v
	}
	return summary
}
