package stock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizBooks/internal/config"
	ledgereng "BizBooks/internal/ledger"
	stockeng "BizBooks/internal/stock"
	"BizBooks/internal/store/memstore"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	st := memstore.New()
	require.NoError(t, st.CreatePartition(context.Background(), config.LedgerPartition, ledgereng.Header))
	dated := stockeng.NewDatedEngine(st)
	weekly := stockeng.NewWeeklyEngine(st)
	companies := stockeng.NewCompanies(st, config.LedgerPartition)

	r := mux.NewRouter()
	r.HandleFunc("/stock/companies", ListCompanies(companies)).Methods("GET")
	r.HandleFunc("/stock/companies", CreateCompany(companies)).Methods("POST")
	r.HandleFunc("/stock/companies/{name}", DeleteCompany(companies)).Methods("DELETE")
	r.HandleFunc("/stock/entries", SaveEntries(dated)).Methods("POST")
	r.HandleFunc("/stock/entries", ListEntries(dated)).Methods("GET")
	r.HandleFunc("/stock/entries/autofill", AutofillOpeningStock(dated)).Methods("GET")
	r.HandleFunc("/stock/summary", Summarize(dated)).Methods("GET")
	r.HandleFunc("/stock/weekly/entries", SaveWeeklyEntry(weekly)).Methods("POST")
	return r
}

func doJSON(t *testing.T, r *mux.Router, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func TestCompanyEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w, body := doJSON(t, r, "POST", "/stock/companies", `{"name":"Sharma Distributors","kind":"dated"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, _ = doJSON(t, r, "POST", "/stock/companies", `{"name":"Sharma Distributors","kind":"dated"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = doJSON(t, r, "POST", "/stock/companies", `{"name":"`+config.LedgerPartition+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, body = doJSON(t, r, "GET", "/stock/companies", "")
	assert.Equal(t, []interface{}{"Sharma Distributors"}, body["rows"])

	w, body = doJSON(t, r, "DELETE", "/stock/companies/Sharma%20Distributors", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}

func TestSaveEntriesEndpoint(t *testing.T) {
	r := newTestRouter(t)
	_, _ = doJSON(t, r, "POST", "/stock/companies", `{"name":"Sharma Distributors"}`)

	w, body := doJSON(t, r, "POST", "/stock/entries",
		`{"company":"Sharma Distributors","item":"Widget","current_stock":10,"new_stock":5,
		  "sales":[{"date":"2024-01-01","qty":2},{"date":"2024-01-02","qty":2}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	saved := body["saved"].([]interface{})
	require.Len(t, saved, 2)
	second := saved[1].(map[string]interface{})
	assert.Equal(t, float64(13), second["current_stock"])
	assert.Equal(t, float64(11), second["final_stock"])

	_, body = doJSON(t, r, "GET", "/stock/entries/autofill?company=Sharma+Distributors&item=Widget", "")
	assert.Equal(t, float64(11), body["opening_stock"])

	_, body = doJSON(t, r, "GET", "/stock/summary?company=Sharma+Distributors&from=2024-01-01&to=2024-01-02", "")
	summary := body["summary"].(map[string]interface{})
	items := summary["items"].([]interface{})
	require.Len(t, items, 1)
	widget := items[0].(map[string]interface{})
	assert.Equal(t, float64(11), widget["current_stock"])
	assert.Equal(t, float64(4), widget["total_sold"])
}

func TestSaveEntriesMissingCompany(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, "POST", "/stock/entries", `{"item":"Widget","sales":[{"date":"2024-01-01","qty":1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveWeeklyEntryEndpoint(t *testing.T) {
	r := newTestRouter(t)
	_, _ = doJSON(t, r, "POST", "/stock/companies", `{"name":"Patel Wholesale","kind":"weekly"}`)

	w, body := doJSON(t, r, "POST", "/stock/weekly/entries",
		`{"company":"Patel Wholesale","item":"Widget","opening_stock":10,"new_stock":5,"sold":[1,1,1,0,0,2,0]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	entry := body["entry"].(map[string]interface{})
	assert.Equal(t, float64(10), entry["final_stock"])
}
