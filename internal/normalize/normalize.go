// Package normalize coerces arbitrary tabular input into the canonical
// transaction schema the feature extractor expects.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

// RawTable is an untyped table as it arrives from an upload or an
// account-linking adapter. Rows shorter than Columns are padded with
// the empty sentinel.
type RawTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Column aliases accepted when locating the canonical fields. The first
// match wins.
var (
	dateAliases     = []string{"date", "transaction_date", "posted_date"}
	amountAliases   = []string{"amount", "amt", "transaction_amount"}
	typeAliases     = []string{"type", "direction"}
	categoryAliases = []string{"category", "description", "label"}
)

// Date layouts tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// Table reshapes a raw table into normalized transactions. Missing
// columns are created empty, unparsable dates become the zero time,
// unparsable amounts become 0, and type/category are lower-cased.
// No row is ever dropped and no input can make this fail.
func Table(raw RawTable) []domain.Transaction {
	dateIdx := findColumn(raw.Columns, dateAliases)
	amountIdx := findColumn(raw.Columns, amountAliases)
	typeIdx := findColumn(raw.Columns, typeAliases)
	categoryIdx := findColumn(raw.Columns, categoryAliases)

	txs := make([]domain.Transaction, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		amount := parseAmount(cell(row, amountIdx))
		txType := domain.TransactionType(strings.ToLower(strings.TrimSpace(cell(row, typeIdx))))
		// Signed statements carry direction in the amount; fold the
		// sign into the type so amounts stay non-negative.
		if amount < 0 {
			amount = -amount
			txType = domain.Outflow
		}
		txs = append(txs, domain.Transaction{
			Date:     parseDate(cell(row, dateIdx)),
			Amount:   amount,
			Type:     txType,
			Category: strings.ToLower(strings.TrimSpace(cell(row, categoryIdx))),
		})
	}
	return txs
}

func findColumn(columns []string, aliases []string) int {
	for _, alias := range aliases {
		for i, col := range columns {
			if strings.EqualFold(strings.TrimSpace(col), alias) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseAmount(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
