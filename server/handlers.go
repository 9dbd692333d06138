package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"refbounty/auth"
	"refbounty/models"
	"refbounty/service"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// SessionCookie is the cookie carrying the signed session token
const SessionCookie = "refbounty_token"

// Handler holds the services behind the HTTP API
type Handler struct {
	accounts    service.AccountService
	withdrawals service.WithdrawalService
	tokens      *auth.TokenManager
}

func NewHandler(accounts service.AccountService, withdrawals service.WithdrawalService, tokens *auth.TokenManager) *Handler {
	return &Handler{
		accounts:    accounts,
		withdrawals: withdrawals,
		tokens:      tokens,
	}
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type withdrawalRequest struct {
	Amount        int64  `json:"amount"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
}

type processRequest struct {
	Status models.WithdrawalStatus `json:"status"`
	Notes  string                  `json:"notes,omitempty"`
}

type userResponse struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	ReferralCode     string    `json:"referral_code"`
	TotalEarnings    int64     `json:"total_earnings"`
	AvailableBalance int64     `json:"available_balance"`
	TotalReferrals   int64     `json:"total_referrals"`
	IsAdmin          bool      `json:"is_admin"`
	CreatedAt        time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		ReferralCode:     u.ReferralCode,
		TotalEarnings:    u.TotalEarnings,
		AvailableBalance: u.AvailableBalance,
		TotalReferrals:   u.TotalReferrals,
		IsAdmin:          u.IsAdmin,
		CreatedAt:        u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), errorResponse{Error: err.Error()})
}

// errorStatus maps domain errors to HTTP statuses. Anything unrecognized is a
// server-side failure and must not leak as a client error.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrWithdrawalNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrWithdrawalNotPending):
		return http.StatusConflict
	case errors.Is(err, models.ErrAmountBelowMinimum),
		errors.Is(err, models.ErrBankDetailsRequired),
		errors.Is(err, models.ErrInvalidDecision):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) setSession(w http.ResponseWriter, userID int64, isAdmin bool) error {
	token, err := h.tokens.Generate(userID, isAdmin)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// RegisterHandler creates an account and opens a session for it
func (h *Handler) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		user, err := h.accounts.Register(r.Context(), service.RegisterParams{
			Email:        req.Email,
			Password:     req.Password,
			FullName:     req.FullName,
			ReferralCode: req.ReferralCode,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		if err := h.setSession(w, user.ID, user.IsAdmin); err != nil {
			log.WithError(err).Error("Failed to issue session token")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to create session"})
			return
		}
		writeJSON(w, http.StatusCreated, newUserResponse(user))
	}
}

// LoginHandler checks credentials and opens a session
func (h *Handler) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := h.setSession(w, user.ID, user.IsAdmin); err != nil {
			log.WithError(err).Error("Failed to issue session token")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to create session"})
			return
		}
		writeJSON(w, http.StatusOK, newUserResponse(user))
	}
}

// LogoutHandler drops the session cookie
func (h *Handler) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProfileHandler returns the current user's ledger state
func (h *Handler) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		user, err := h.accounts.GetProfile(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newUserResponse(user))
	}
}

// ReferralsHandler lists the current user's successful referrals
func (h *Handler) ReferralsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		referrals, err := h.accounts.GetReferrals(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		if referrals == nil {
			referrals = []*models.Referral{}
		}
		writeJSON(w, http.StatusOK, referrals)
	}
}

// ListWithdrawalsHandler lists the current user's withdrawal history
func (h *Handler) ListWithdrawalsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		withdrawals, err := h.withdrawals.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		if withdrawals == nil {
			withdrawals = []*models.Withdrawal{}
		}
		writeJSON(w, http.StatusOK, withdrawals)
	}
}

// RequestWithdrawalHandler files a new pending withdrawal
func (h *Handler) RequestWithdrawalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req withdrawalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		claims := GetClaims(r.Context())
		withdrawal, err := h.withdrawals.Request(r.Context(), claims.UserID, service.WithdrawalParams{
			Amount:        req.Amount,
			AccountName:   req.AccountName,
			AccountNumber: req.AccountNumber,
			BankName:      req.BankName,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, withdrawal)
	}
}

// AdminWithdrawalsHandler lists withdrawals by status, oldest first
func (h *Handler) AdminWithdrawalsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := models.WithdrawalStatus(r.URL.Query().Get("status"))
		if status == "" {
			status = models.WithdrawalStatusPending
		}

		claims := GetClaims(r.Context())
		withdrawals, err := h.withdrawals.ListByStatus(r.Context(), claims.UserID, status)
		if err != nil {
			writeError(w, err)
			return
		}
		if withdrawals == nil {
			withdrawals = []*models.Withdrawal{}
		}
		writeJSON(w, http.StatusOK, withdrawals)
	}
}

// ProcessWithdrawalHandler approves or declines a pending withdrawal
func (h *Handler) ProcessWithdrawalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withdrawalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid withdrawal id"})
			return
		}

		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		claims := GetClaims(r.Context())
		processed, err := h.withdrawals.Process(r.Context(), claims.UserID, withdrawalID, req.Status, req.Notes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, processed)
	}
}

// AdminUsersHandler lists every account for the admin overview
func (h *Handler) AdminUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		users, err := h.accounts.ListUsers(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := make([]userResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, newUserResponse(u))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HealthHandler reports liveness
func (h *Handler) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
