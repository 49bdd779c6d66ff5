package stock

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"BizBooks/api"
	stockeng "BizBooks/internal/stock"
)

// ExportSummary handles GET /stock/summary/export?company=&from=&to=: the
// filtered stock summary rendered into a workbook for download.
func ExportSummary(dated *stockeng.DatedEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := r.URL.Query().Get("company")
		summary, err := querySummary(dated, r)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		headers := []string{"Item", "Current Stock", "New Stock"}
		headers = append(headers, summary.Dates...)
		headers = append(headers, "Total Sold")
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		for i, item := range summary.Items {
			rowPos := i + 2
			values := []interface{}{item.Item, item.CurrentStock, item.NewStock}
			for _, sold := range item.SoldByDate {
				values = append(values, sold)
			}
			values = append(values, item.TotalSold)
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, rowPos)
				f.SetCellValue(sheet, cell, v)
			}
		}

		filename := fmt.Sprintf("%s_summary_%s.xlsx", company, uuid.NewString()[:8])
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
		if err := f.Write(w); err != nil {
			api.LogError("writing summary export for %s: %v", company, err)
		}
	}
}
