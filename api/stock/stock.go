package stock

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"BizBooks/api"
	stockeng "BizBooks/internal/stock"
)

func StartStockService(cfg map[string]interface{}, dated *stockeng.DatedEngine, weekly *stockeng.WeeklyEngine, companies *stockeng.Companies) {
	port := "4143"
	if cfg != nil {
		if p, ok := cfg["port"]; ok && p != nil {
			port = fmt.Sprint(p)
		}
	}

	r := mux.NewRouter()
	r.HandleFunc("/stock/companies", ListCompanies(companies)).Methods("GET")
	r.HandleFunc("/stock/companies", CreateCompany(companies)).Methods("POST")
	r.HandleFunc("/stock/companies/{name}", DeleteCompany(companies)).Methods("DELETE")

	r.HandleFunc("/stock/weekly/entries", SaveWeeklyEntry(weekly)).Methods("POST")
	r.HandleFunc("/stock/weekly/entries", ListWeeklyEntries(weekly)).Methods("GET")
	r.HandleFunc("/stock/weekly/entries/{company}/{item}", DeleteWeeklyEntry(weekly)).Methods("DELETE")

	r.HandleFunc("/stock/entries", SaveEntries(dated)).Methods("POST")
	r.HandleFunc("/stock/entries", ListEntries(dated)).Methods("GET")
	r.HandleFunc("/stock/entries/autofill", AutofillOpeningStock(dated)).Methods("GET")
	r.HandleFunc("/stock/entries/{company}/{item}/{date}", DeleteEntry(dated)).Methods("DELETE")

	r.HandleFunc("/stock/summary", Summarize(dated)).Methods("GET")
	r.HandleFunc("/stock/summary/export", ExportSummary(dated)).Methods("GET")

	log.Println("Stock Service started on :" + port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Stock Service failed: %v", err)
	}
}

// ListCompanies handles GET /stock/companies.
func ListCompanies(companies *stockeng.Companies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := companies.List(r.Context())
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		api.RespondWithPayload(w, names)
	}
}

// CreateCompany handles POST /stock/companies with {"name": ..., "kind": "dated"|"weekly"}.
func CreateCompany(companies *stockeng.Companies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := companies.Create(r.Context(), req.Name, stockeng.CompanyKind(req.Kind)); err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"company": req.Name,
		})
	}
}

// DeleteCompany handles DELETE /stock/companies/{name}.
func DeleteCompany(companies *stockeng.Companies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := companies.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

type weeklyEntryRequest struct {
	Company string `json:"company"`
	Item    string `json:"item"`
	Opening int    `json:"opening_stock"`
	New     int    `json:"new_stock"`
	Sold    [7]int `json:"sold"` // Monday first
}

// SaveWeeklyEntry handles POST /stock/weekly/entries.
func SaveWeeklyEntry(weekly *stockeng.WeeklyEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req weeklyEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Company == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing company in body")
			return
		}
		entry, err := weekly.SaveEntry(r.Context(), req.Company, req.Item, req.Opening, req.New, req.Sold)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"entry":   entry,
		})
	}
}

// ListWeeklyEntries handles GET /stock/weekly/entries?company=NAME.
func ListWeeklyEntries(weekly *stockeng.WeeklyEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := r.URL.Query().Get("company")
		if company == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing company query parameter")
			return
		}
		entries, err := weekly.ListEntries(r.Context(), company)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		api.RespondWithPayload(w, entries)
	}
}

// DeleteWeeklyEntry handles DELETE /stock/weekly/entries/{company}/{item}.
// With duplicate item rows the first one in table order is removed.
func DeleteWeeklyEntry(weekly *stockeng.WeeklyEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := weekly.DeleteEntry(r.Context(), vars["company"], vars["item"]); err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

type saveEntriesRequest struct {
	Company string          `json:"company"`
	Item    string          `json:"item"`
	Current int             `json:"current_stock"`
	New     int             `json:"new_stock"`
	Sales   []stockeng.Sale `json:"sales"`
}

// SaveEntries handles POST /stock/entries: the date-indexed batch save.
func SaveEntries(dated *stockeng.DatedEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveEntriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Company == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing company in body")
			return
		}
		entries, err := dated.SaveEntries(r.Context(), req.Company, req.Item, req.Current, req.New, req.Sales)
		if err != nil {
			// Entries saved before the failure stay saved; report both.
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
				"saved":   entries,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"saved":   entries,
		})
	}
}

// ListEntries handles GET /stock/entries?company=NAME.
func ListEntries(dated *stockeng.DatedEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := r.URL.Query().Get("company")
		if company == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing company query parameter")
			return
		}
		entries, err := dated.ListEntries(r.Context(), company)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		api.RespondWithPayload(w, entries)
	}
}

// AutofillOpeningStock handles GET /stock/entries/autofill?company=&item=.
func AutofillOpeningStock(dated *stockeng.DatedEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := r.URL.Query().Get("company")
		item := r.URL.Query().Get("item")
		if company == "" || item == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing company or item query parameter")
			return
		}
		opening, err := dated.AutofillOpeningStock(r.Context(), company, item)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":       true,
			"item":          item,
			"opening_stock": opening,
		})
	}
}

// DeleteEntry handles DELETE /stock/entries/{company}/{item}/{date}.
func DeleteEntry(dated *stockeng.DatedEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := dated.DeleteEntry(r.Context(), vars["company"], vars["item"], vars["date"]); err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

// Summarize handles GET /stock/summary?company=&from=&to=.
func Summarize(dated *stockeng.DatedEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := querySummary(dated, r)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"summary": summary,
		})
	}
}

func querySummary(dated *stockeng.DatedEngine, r *http.Request) (*stockeng.Summary, error) {
	q := r.URL.Query()
	return dated.Summarize(r.Context(), q.Get("company"), q.Get("from"), q.Get("to"))
}
