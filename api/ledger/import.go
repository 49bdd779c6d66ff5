package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"BizBooks/api"
	"BizBooks/internal/config"
	ledgereng "BizBooks/internal/ledger"
)

// ImportRecords handles POST /ledger/import: a bulk upload of transactions
// from a spreadsheet file. Columns are positional (party, date, charge,
// payment); balances are recomputed on the way in, never trusted from the
// file. Supports .xlsx and legacy .xls.
func ImportRecords(engine *ledgereng.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Missing file field")
			return
		}
		defer file.Close()

		var rows [][]string
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".xlsx":
			rows, err = readXLSX(file)
		case ".xls":
			rows, err = readXLS(file)
		default:
			api.RespondWithError(w, http.StatusBadRequest, "Unsupported file type (want .xlsx or .xls)")
			return
		}
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(rows) > 0 && strings.EqualFold(strings.TrimSpace(cellAt(rows[0], 0)), "party") {
			rows = rows[1:] // drop header row
		}

		imported := 0
		var rowErrors []map[string]interface{}
		for i, row := range rows {
			charge, cErr := parseImportAmount(cellAt(row, 2))
			payment, pErr := parseImportAmount(cellAt(row, 3))
			if cErr != nil || pErr != nil {
				rowErrors = append(rowErrors, map[string]interface{}{
					"row": i + 1, "error": "amount or payment is not a number",
				})
				continue
			}
			_, err := engine.AddTransaction(r.Context(), config.LedgerPartition,
				cellAt(row, 0), cellAt(row, 1), charge, payment)
			if err != nil {
				rowErrors = append(rowErrors, map[string]interface{}{
					"row": i + 1, "error": err.Error(),
				})
				continue
			}
			imported++
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  len(rowErrors) == 0,
			"imported": imported,
			"failed":   len(rowErrors),
			"errors":   rowErrors,
		})
	}
}

func readXLSX(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read xlsx file: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}
	return f.GetRows(sheets[0])
}

// readXLS goes through a temp file because the legacy reader only works
// with file paths.
func readXLS(file io.Reader) ([][]string, error) {
	tmp, err := os.CreateTemp("", "ledger-import-*.xls")
	if err != nil {
		return nil, fmt.Errorf("cannot buffer xls upload: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("cannot buffer xls upload: %w", err)
	}
	tmp.Close()

	book, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("cannot read xls file: %w", err)
	}
	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("xls file has no readable sheet")
	}
	var rows [][]string
	for _, xlsRow := range sheet.GetRows() {
		var cells []string
		for _, col := range xlsRow.GetCols() {
			cells = append(cells, col.GetString())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseImportAmount(cell string) (decimal.Decimal, error) {
	if cell == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cell)
}
