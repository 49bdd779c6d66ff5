package ledger

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
	"BizBooks/internal/store/memstore"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	st := memstore.New()
	require.NoError(t, st.CreatePartition(context.Background(), config.LedgerPartition, ledgereng.Header))
	engine := ledgereng.NewEngine(st)

	r := mux.NewRouter()
	r.HandleFunc("/ledger/transactions", AddTransaction(engine)).Methods("POST")
	r.HandleFunc("/ledger/transactions", ListTransactions(engine)).Methods("GET")
	r.HandleFunc("/ledger/transactions/{index}", DeleteTransaction(engine)).Methods("DELETE")
	r.HandleFunc("/ledger/parties", ListParties(engine)).Methods("GET")
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

func TestAddAndListTransactions(t *testing.T) {
	r := newTestRouter(t)

	w, body := doJSON(t, r, "POST", "/ledger/transactions",
		`{"party":"Acme Traders","date":"2024-03-15","charge":"200","payment":"120"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, "80", tx["balance"])

	w, body = doJSON(t, r, "GET", "/ledger/transactions?party=Acme+Traders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "80", body["total_balance"])
	rows := body["rows"].([]interface{})
	require.Len(t, rows, 1)
}

func TestAddTransactionBadRequest(t *testing.T) {
	r := newTestRouter(t)

	w, body := doJSON(t, r, "POST", "/ledger/transactions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = doJSON(t, r, "POST", "/ledger/transactions",
		`{"party":"","date":"2024-03-15","charge":"10","payment":"0"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestListTransactionsRequiresParty(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, "GET", "/ledger/transactions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTransaction(t *testing.T) {
	r := newTestRouter(t)
	_, _ = doJSON(t, r, "POST", "/ledger/transactions",
		`{"party":"Acme","date":"2024-03-15","charge":"10","payment":"0"}`)

	w, body := doJSON(t, r, "DELETE", "/ledger/transactions/0", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, _ = doJSON(t, r, "DELETE", "/ledger/transactions/0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, r, "DELETE", "/ledger/transactions/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListParties(t *testing.T) {
	r := newTestRouter(t)
	for _, p := range []string{"Zenith", "Acme", "Zenith"} {
		_, _ = doJSON(t, r, "POST", "/ledger/transactions",
			`{"party":"`+p+`","date":"2024-03-15","charge":"10","payment":"0"}`)
	}
	w, body := doJSON(t, r, "GET", "/ledger/parties", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"Zenith", "Acme"}, body["rows"])
}
