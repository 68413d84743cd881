package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskbay/taskbay/internal/ledger"
	"github.com/taskbay/taskbay/internal/middleware"
)

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Email == "" || req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", errors.New("email and display_name are required"))
		return
	}

	account, err := s.authenticator.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		slog.Warn("Registration failed", "email", req.Email, "error", err)
		writeServiceError(w, err)
		return
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		slog.Error("Failed to generate token", "account_id", account.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	slog.Info("Account registered", "account_id", account.ID, "email", account.Email)
	writeJSON(w, http.StatusCreated, authResponse{
		AccountID:   account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Token:       token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	account, err := s.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("Login failed", "email", req.Email, "error", err)
		writeServiceError(w, err)
		return
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		slog.Error("Failed to generate token", "account_id", account.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccountID:   account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Token:       token,
	})
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", errors.New("amount must be positive"))
		return
	}

	if err := s.funds.Deposit(r.Context(), accountID, req.Amount); err != nil {
		slog.Error("Deposit failed", "account_id", accountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	balance, err := s.funds.Balance(r.Context(), accountID)
	if err != nil && !errors.Is(err, ledger.ErrNoAccount) {
		slog.Error("Balance lookup failed", "account_id", accountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}
