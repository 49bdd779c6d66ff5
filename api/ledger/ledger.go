package ledger

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"BizBooks/api"
	"BizBooks/internal/config"
	ledgereng "BizBooks/internal/ledger"
)

func StartLedgerService(cfg map[string]interface{}, engine *ledgereng.Engine) {
	port := "3143"
	if cfg != nil {
		if p, ok := cfg["port"]; ok && p != nil {
			port = fmt.Sprint(p)
		}
	}

	r := mux.NewRouter()
	r.HandleFunc("/ledger/transactions", AddTransaction(engine)).Methods("POST")
	r.HandleFunc("/ledger/transactions", ListTransactions(engine)).Methods("GET")
	r.HandleFunc("/ledger/transactions/{index}", DeleteTransaction(engine)).Methods("DELETE")
	r.HandleFunc("/ledger/parties", ListParties(engine)).Methods("GET")
	r.HandleFunc("/ledger/export", ExportRecords(engine)).Methods("GET")
	r.HandleFunc("/ledger/import", ImportRecords(engine)).Methods("POST")

	log.Println("Ledger Service started on :" + port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Ledger Service failed: %v", err)
	}
}

type transactionRequest struct {
	Party   string          `json:"party"`
	Date    string          `json:"date"`
	Charge  decimal.Decimal `json:"charge"`
	Payment decimal.Decimal `json:"payment"`
}

// AddTransaction handles POST /ledger/transactions.
func AddTransaction(engine *ledgereng.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		tx, err := engine.AddTransaction(r.Context(), config.LedgerPartition, req.Party, req.Date, req.Charge, req.Payment)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"transaction": tx,
		})
	}
}

// ListTransactions handles GET /ledger/transactions?party=NAME. The reply
// carries the party's rows in table order plus their total balance.
func ListTransactions(engine *ledgereng.Engine) http.HandlerFunc {
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
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":       true,
			"party":         party,
			"rows":          txs,
			"total_balance": ledgereng.TotalBalance(txs),
		})
	}
}

// DeleteTransaction handles DELETE /ledger/transactions/{index}. The index
// is the logical 0-based position in the full table and shifts after every
// delete; clients must re-list before deleting again.
func DeleteTransaction(engine *ledgereng.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(mux.Vars(r)["index"])
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid transaction index")
			return
		}
		if err := engine.DeleteTransaction(r.Context(), config.LedgerPartition, index); err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

// ListParties handles GET /ledger/parties (suggestion list source).
func ListParties(engine *ledgereng.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parties, err := engine.Parties(r.Context(), config.LedgerPartition)
		if err != nil {
			api.RespondWithDomainError(w, err)
			return
		}
		api.RespondWithPayload(w, parties)
	}
}
