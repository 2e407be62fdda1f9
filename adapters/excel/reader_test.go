package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fotd/internal/errors"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != DefaultSheet {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "observations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("default sheet", func(t *testing.T) {
		path := writeWorkbook(t, DefaultSheet, [][]interface{}{
			{"store_slug", "flavor_date", "title", "description"},
			{"madison", "2026-01-01", "Turtle", "Caramel and pecans"},
			{"madison", "2026-01-02", "Mint Explosion", ""},
			{"verona", "2026-01-01", "Turtle", ""},
		})
		ds, err := NewReader(path).Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if ds.Len() != 3 {
			t.Fatalf("Len = %d", ds.Len())
		}
		if got := ds.Store("madison")[0].Description; got != "Caramel and pecans" {
			t.Errorf("description = %q", got)
		}
	})

	t.Run("named sheet", func(t *testing.T) {
		path := writeWorkbook(t, "archive", [][]interface{}{
			{"store_slug", "flavor_date", "title"},
			{"madison", "2026-01-01", "Turtle"},
		})
		ds, err := NewSheetReader(path, "archive").Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if ds.Len() != 1 {
			t.Errorf("Len = %d", ds.Len())
		}
	})

	t.Run("trimmed trailing cells read as empty", func(t *testing.T) {
		// excelize drops trailing empty cells from GetRows; the optional
		// description then falls off the record entirely
		path := writeWorkbook(t, DefaultSheet, [][]interface{}{
			{"store_slug", "flavor_date", "title", "description"},
			{"madison", "2026-01-01", "Turtle"},
		})
		ds, err := NewReader(path).Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got := ds.Rows()[0].Description; got != "" {
			t.Errorf("description = %q", got)
		}
	})

	t.Run("missing required column", func(t *testing.T) {
		path := writeWorkbook(t, DefaultSheet, [][]interface{}{
			{"store_slug", "title"},
			{"madison", "Turtle"},
		})
		_, err := NewReader(path).Load()
		if errors.GetCode(err) != errors.CodeMissingColumn {
			t.Errorf("error = %v, want missing column", err)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		path := writeWorkbook(t, DefaultSheet, [][]interface{}{
			{"store_slug", "flavor_date", "title"},
			{"madison", "Jan 1 2026", "Turtle"},
		})
		_, err := NewReader(path).Load()
		if errors.GetCode(err) != errors.CodeBadDate {
			t.Errorf("error = %v, want bad date", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewReader(filepath.Join(t.TempDir(), "nope.xlsx")).Load()
		if errors.GetCode(err) != errors.CodeStorageError {
			t.Errorf("error = %v, want storage error", err)
		}
	})

	t.Run("unknown sheet", func(t *testing.T) {
		path := writeWorkbook(t, DefaultSheet, [][]interface{}{
			{"store_slug", "flavor_date", "title"},
		})
		_, err := NewSheetReader(path, "nope").Load()
		if errors.GetCode(err) != errors.CodeStorageError {
			t.Errorf("error = %v, want storage error", err)
		}
	})
}
