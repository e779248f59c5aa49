package http

import (
	"fmt"
	"net/http"

	"budgetbook/internal/core"
)

type setBudgetRequest struct {
	Identity string `json:"identity"`
	Income   string `json:"income"`
}

type addSubDivisionRequest struct {
	Identity string `json:"identity"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
}

type spendSubDivisionRequest struct {
	Identity string `json:"identity"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
}

type spendCategoryRequest struct {
	Identity string `json:"identity"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type spendGeneralRequest struct {
	Identity string `json:"identity"`
	Amount   string `json:"amount"`
}

type categorySummary struct {
	Allocated string `json:"allocated"`
	Spent     string `json:"spent"`
	Remaining string `json:"remaining"`
}

type summaryResponse struct {
	Identity        string          `json:"identity"`
	Income          string          `json:"income"`
	DailyNeedsLimit string          `json:"daily_needs_limit"`
	DailyWantsLimit string          `json:"daily_wants_limit"`
	Needs           categorySummary `json:"needs"`
	Wants           categorySummary `json:"wants"`
	Savings         categorySummary `json:"savings"`
}

type subDivisionResponse struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
	Spent      string `json:"spent"`
	Remaining  string `json:"remaining"`
}

type subDivisionListResponse struct {
	Identity     string                `json:"identity"`
	Category     string                `json:"category"`
	SubDivisions []subDivisionResponse `json:"sub_divisions"`
}

type statsResponse struct {
	Accounts int64 `json:"accounts"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req setBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	identity := sanitizeInput(req.Identity)
	if identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "identity is required"})
		return
	}
	income, err := core.ParseAmount(req.Income)
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("income: %w", err))
		return
	}

	if err := s.ledger.SetInitialBudget(r.Context(), identity, income); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, statusResponse{Status: "created"})
}

func (s *Server) handleSubDivisions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddSubDivision(w, r)
	case http.MethodGet:
		s.handleListSubDivisions(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleAddSubDivision(w http.ResponseWriter, r *http.Request) {
	var req addSubDivisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	identity := sanitizeInput(req.Identity)
	if identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "identity is required"})
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("amount: %w", err))
		return
	}

	if err := s.ledger.AddSubDivision(r.Context(), identity, category, sanitizeInput(req.Name), amount); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, statusResponse{Status: "created"})
}

func (s *Server) handleListSubDivisions(w http.ResponseWriter, r *http.Request) {
	identity := sanitizeInput(r.URL.Query().Get("identity"))
	if identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "identity is required"})
		return
	}
	category, err := core.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	views, err := s.ledger.GetSubDivisions(r.Context(), identity, category)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := subDivisionListResponse{
		Identity:     identity,
		Category:     string(category),
		SubDivisions: make([]subDivisionResponse, 0, len(views)),
	}
	for _, v := range views {
		remaining := core.FromCents(v.Amount.Cents - v.Spent.Cents)
		resp.SubDivisions = append(resp.SubDivisions, subDivisionResponse{
			Name:       v.Name,
			Amount:     v.Amount.String(),
			Percentage: v.Percentage.StringFixed(1),
			Spent:      v.Spent.String(),
			Remaining:  remaining.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpendFromSubDivision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req spendSubDivisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	identity := sanitizeInput(req.Identity)
	if identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "identity is required"})
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("amount: %w", err))
		return
	}

	if err := s.ledger.SpendFromSubDivision(r.Context(), identity, category, sanitizeInput(req.Name), amount); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleSpendFromCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req spendCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	identity := sanitizeInput(req.Identity)
	if identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "identity is required"})
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("amount: %w", err))
		return
	}

	if err := s.ledger.SpendFromCategory(r.Context(), identity, category, amount); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleSpendFromGeneral(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req spendGeneralRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	identity := sanitizeInput(req.Identity)
	if identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "identity is required"})
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("amount: %w", err))
		return
	}

	if err := s.ledger.SpendFromGeneral(r.Context(), identity, amount); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	identity := sanitizeInput(r.URL.Query().Get("identity"))
	if identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "identity is required"})
		return
	}

	summary, err := s.ledger.GetBudgetSummary(r.Context(), identity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Identity:        summary.Identity,
		Income:          summary.Income.String(),
		DailyNeedsLimit: summary.DailyNeedsLimit.StringFixed(2),
		DailyWantsLimit: summary.DailyWantsLimit.StringFixed(2),
		Needs: categorySummary{
			Allocated: summary.NeedsAllocated.String(),
			Spent:     summary.NeedsSpent.String(),
			Remaining: core.FromCents(summary.NeedsAllocated.Cents - summary.NeedsSpent.Cents).String(),
		},
		Wants: categorySummary{
			Allocated: summary.WantsAllocated.String(),
			Spent:     summary.WantsSpent.String(),
			Remaining: core.FromCents(summary.WantsAllocated.Cents - summary.WantsSpent.Cents).String(),
		},
		Savings: categorySummary{
			Allocated: summary.SavingsAllocated.String(),
			Spent:     summary.SavingsSpent.String(),
			Remaining: core.FromCents(summary.SavingsAllocated.Cents - summary.SavingsSpent.Cents).String(),
		},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	count, err := s.ledger.AccountCount(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Accounts: count})
}
