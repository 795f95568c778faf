package ingestion

import (
	"testing"

	"github.com/opencredit-finance/kestrel/internal/normalize"
)

func TestParseStatementCSV(t *testing.T) {
	t.Run("BasicStatement", func(t *testing.T) {
		data := []byte("date,amount,category\n2024-01-05,1200,salary\n2024-01-10,-300,rent\n")
		table, err := ParseStatementCSV(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(table.Columns) != 3 || table.Columns[1] != "amount" {
			t.Errorf("unexpected header: %v", table.Columns)
		}
		if len(table.Rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(table.Rows))
		}
		if table.Rows[0][1] != "1200" {
			t.Errorf("expected amount cell 1200, got %q", table.Rows[0][1])
		}
	})

	t.Run("RaggedRowsKept", func(t *testing.T) {
		data := []byte("date,amount,category\n2024-01-05,1200\n2024-01-10,-300,rent,extra\n")
		table, err := ParseStatementCSV(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(table.Rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(table.Rows))
		}
		if len(table.Rows[0]) != 2 || len(table.Rows[1]) != 4 {
			t.Errorf("ragged widths not preserved: %d, %d", len(table.Rows[0]), len(table.Rows[1]))
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := ParseStatementCSV(nil)
		if err == nil {
			t.Fatal("expected header read error")
		}
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		table, err := ParseStatementCSV([]byte("date,amount,category\n"))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(table.Rows) != 0 {
			t.Errorf("expected no rows, got %d", len(table.Rows))
		}
	})
}

func TestSummarize(t *testing.T) {
	t.Run("SignedAmounts", func(t *testing.T) {
		table := normalize.RawTable{
			Columns: []string{"date", "amount", "category"},
			Rows: [][]string{
				{"2024-01-05", "1,200", "salary"},
				{"2024-01-10", "-300", "rent"},
				{"2024-01-12", "oops", "misc"},
				{"2024-01-15", "-50.25", "transport"},
			},
		}
		s := Summarize(table)
		if s.Transactions != 3 {
			t.Errorf("expected 3 parsable transactions, got %d", s.Transactions)
		}
		if s.TotalInflow != 1200 {
			t.Errorf("expected inflow 1200, got %g", s.TotalInflow)
		}
		if s.TotalOutflow != -350.25 {
			t.Errorf("expected outflow -350.25, got %g", s.TotalOutflow)
		}
		if s.NetFlow != 849.75 {
			t.Errorf("expected net 849.75, got %g", s.NetFlow)
		}
	})

	t.Run("NoAmountColumn", func(t *testing.T) {
		table := normalize.RawTable{
			Columns: []string{"date", "category"},
			Rows:    [][]string{{"2024-01-05", "salary"}},
		}
		s := Summarize(table)
		if s.Transactions != 0 || s.NetFlow != 0 {
			t.Errorf("expected zero summary, got %+v", s)
		}
	})

	t.Run("ShortRowsSkipped", func(t *testing.T) {
		table := normalize.RawTable{
			Columns: []string{"date", "amount"},
			Rows:    [][]string{{"2024-01-05"}, {"2024-01-06", "40"}},
		}
		s := Summarize(table)
		if s.Transactions != 1 || s.TotalInflow != 40 {
			t.Errorf("expected one counted row, got %+v", s)
		}
	})
}
