package http

import (
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/middleware/trace"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	st := s.ledger.Stats()
	NewJSONResponse().Data(map[string]any{
		"status":       "ready",
		"transactions": st.Transactions,
		"undated":      st.Undated,
		"rejected":     st.Rejected,
		"revision":     st.Revision,
	}).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewJSONResponse().Data(toListJSON(s.ledger.List(q))).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := ParseAddRequest(NewRequestBodyParser(r))
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	tx, err := s.ledger.Add(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, log.OpInsert)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(toTransactionJSON(tx)).Write(w)
}

func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIdentity(r.URL.Query())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	removed, err := s.ledger.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Data(map[string]int{"removed": removed}).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	idx := s.ledger.CategoryIndex()
	NewJSONResponse().Data(map[string][]string{
		"income":  idx[core.Income],
		"expense": idx[core.Expense],
	}).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, err := ParseReportRequest(r.PathValue("kind"), r.URL.Query())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	rep, err := s.ledger.Report(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, log.OpReport)
		return
	}
	NewJSONResponse().Data(toReportJSON(rep)).Write(w)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Reload(r.Context())
	if err != nil {
		s.fail(w, r, err, log.OpLoad)
		return
	}
	NewJSONResponse().Data(map[string]any{
		"transactions": st.Transactions,
		"rejected":     st.Rejected,
		"revision":     st.Revision,
	}).Write(w)
}

// fail writes the response for err, logging it unless it is an expected
// user-facing condition.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldError, err.Error())
		resp.Data(errorBody{Error: "internal error", RequestID: trace.GetRequestID(r.Context())})
	} else if errors.Is(err, ledger.ErrIdentityNotFound) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Nothing to delete",
			log.FieldOperation, op)
	}
	resp.Write(w)
}
