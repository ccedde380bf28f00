package http

import (
	"net/http"
	"strconv"

	"finmate/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.GetAllExpenses(r.Context())
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().JSON(items).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		respondError(w, r, log.OpParse, err)
		return
	}
	e, err := s.svc.GetExpenseByID(r.Context(), id)
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().JSON(e).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, err := ParseExpenseBody(r, s.clock.Today())
	if err != nil {
		respondError(w, r, log.OpValidate, err)
		return
	}
	e.ID = 0

	saved, err := s.svc.CreateExpense(r.Context(), e)
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogExpenseWritten(r.Context(), log.OpCreate, saved)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/expenses/"+strconv.FormatInt(saved.ID, 10)).
		JSON(saved).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		respondError(w, r, log.OpParse, err)
		return
	}
	e, err := ParseExpenseBody(r, s.clock.Today())
	if err != nil {
		respondError(w, r, log.OpValidate, err)
		return
	}
	// The path id wins over any id in the body.
	e.ID = id

	saved, err := s.svc.UpdateExpense(r.Context(), e)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogExpenseWritten(r.Context(), log.OpUpdate, saved)

	NewJSONResponse().JSON(saved).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		respondError(w, r, log.OpParse, err)
		return
	}
	if err := s.svc.DeleteExpense(r.Context(), id); err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted", log.FieldExpenseID, id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.GetExpensesByCategory(r.Context(), r.PathValue("category"))
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().JSON(items).Write(w)
}

func (s *Server) handleExpensesByDateRange(w http.ResponseWriter, r *http.Request) {
	start, end, err := ParseDateRange(r)
	if err != nil {
		respondError(w, r, log.OpParse, err)
		return
	}
	items, err := s.svc.GetExpensesByDateRange(r.Context(), start, end)
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().JSON(items).Write(w)
}

func (s *Server) handleExpensesByMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := ParseYearMonth(r)
	if err != nil {
		respondError(w, r, log.OpParse, err)
		return
	}
	items, err := s.svc.GetExpensesByMonth(r.Context(), year, month)
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().JSON(items).Write(w)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := ParseYearMonth(r)
	if err != nil {
		respondError(w, r, log.OpParse, err)
		return
	}
	rows, err := s.svc.GetMonthlySummaryByCategory(r.Context(), year, month)
	if err != nil {
		respondError(w, r, log.OpSummary, err)
		return
	}
	NewJSONResponse().JSON(rows).Write(w)
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.GetMonthlyTotals(r.Context())
	if err != nil {
		respondError(w, r, log.OpSummary, err)
		return
	}
	NewJSONResponse().JSON(rows).Write(w)
}
