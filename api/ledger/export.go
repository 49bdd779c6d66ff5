package ledger

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"BizBooks/api"
	"BizBooks/internal/config"
	ledgereng "BizBooks/internal/ledger"
)

// ExportRecords handles GET /ledger/export?party=NAME: the party's filtered
// rows rendered into a fixed four-column workbook (Date, Amount, Payment,
// Balance) for download.
func ExportRecords(engine *ledgereng.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		party := r.URL.Query().Get("party")
		if party == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing party query parameter")
			return
		}
		txs, err := engine.ListByParty(r.Context(), config.LedgerPartition, party)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		f.SetCellValue(sheet, "A1", fmt.Sprintf("Party: %s", party))
		headers := []string{"Date", "Amount", "Payment", "Balance"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 2)
			f.SetCellValue(sheet, cell, h)
		}
		for i, tx := range txs {
			rowPos := i + 3
			values := []string{tx.Date, tx.Charge.String(), tx.Payment.String(), tx.Balance.String()}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, rowPos)
				f.SetCellValue(sheet, cell, v)
			}
		}
		totalRow := len(txs) + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Total")
		f.SetCellValue(sheet, fmt.Sprintf("D%d", totalRow), ledgereng.TotalBalance(txs).String())

		filename := fmt.Sprintf("%s_records_%s.xlsx", party, uuid.NewString()[:8])
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
		if err := f.Write(w); err != nil {
			api.LogError("writing export for %s: %v", party, err)
		}
	}
}
