package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"refbounty/auth"
	"refbounty/models"
	"refbounty/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*MockAccountService, *MockWithdrawalService, *auth.TokenManager, http.Handler) {
	t.Helper()
	accounts := new(MockAccountService)
	withdrawals := new(MockWithdrawalService)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := NewRouter(NewHandler(accounts, withdrawals, tokens))
	return accounts, withdrawals, tokens, router
}

func sessionCookie(t *testing.T, tokens *auth.TokenManager, userID int64, isAdmin bool) *http.Cookie {
	t.Helper()
	token, err := tokens.Generate(userID, isAdmin)
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookie, Value: token}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, json.NewEncoder(buf).Encode(v))
	return buf
}

func TestRegisterHandler(t *testing.T) {
	accounts, _, _, router := newTestServer(t)

	accounts.On("Register", mock.Anything, service.RegisterParams{
		Email:    "alice@example.com",
		Password: "secret123",
		FullName: "Alice",
	}).Return(&models.User{ID: 1, Email: "alice@example.com", ReferralCode: "ALICE123"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"email":     "alice@example.com",
		"password":  "secret123",
		"full_name": "Alice",
	}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp userResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ALICE123", resp.ReferralCode)

	// A session opens on signup
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestRegisterHandler_EmailTaken(t *testing.T) {
	accounts, _, _, router := newTestServer(t)

	accounts.On("Register", mock.Anything, mock.Anything).Return(nil, models.ErrEmailTaken)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"email":     "taken@example.com",
		"password":  "secret123",
		"full_name": "Alice",
	}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	accounts, _, _, router := newTestServer(t)

	accounts.On("Login", mock.Anything, "alice@example.com", "wrong").Return(nil, models.ErrInvalidCredentials)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileHandler_RequiresSession(t *testing.T) {
	_, _, _, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// An expired token signed with the right secret is rejected the same way
	expired := auth.NewTokenManager("test-secret", -time.Minute)
	token, err := expired.Generate(1, false)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileHandler(t *testing.T) {
	accounts, _, tokens, router := newTestServer(t)

	accounts.On("GetProfile", mock.Anything, int64(7)).Return(&models.User{
		ID:               7,
		Email:            "alice@example.com",
		AvailableBalance: 350,
		TotalEarnings:    1000,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.AddCookie(sessionCookie(t, tokens, 7, false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp userResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(350), resp.AvailableBalance)
	assert.Equal(t, int64(1000), resp.TotalEarnings)
}

func TestProfileHandler_BearerToken(t *testing.T) {
	accounts, _, tokens, router := newTestServer(t)

	accounts.On("GetProfile", mock.Anything, int64(7)).Return(&models.User{ID: 7}, nil)

	token, err := tokens.Generate(7, false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestWithdrawalHandler(t *testing.T) {
	_, withdrawals, tokens, router := newTestServer(t)

	withdrawals.On("Request", mock.Anything, int64(7), service.WithdrawalParams{
		Amount:        600,
		AccountName:   "Alice A",
		AccountNumber: "0123456789",
		BankName:      "First Bank",
	}).Return(&models.Withdrawal{ID: 11, UserID: 7, Amount: 600, Charge: 50, Status: models.WithdrawalStatusPending}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/user/withdrawals", jsonBody(t, map[string]any{
		"amount":         600,
		"account_name":   "Alice A",
		"account_number": "0123456789",
		"bank_name":      "First Bank",
	}))
	req.AddCookie(sessionCookie(t, tokens, 7, false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRequestWithdrawalHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"below minimum", models.ErrAmountBelowMinimum, http.StatusUnprocessableEntity},
		{"missing bank details", models.ErrBankDetailsRequired, http.StatusUnprocessableEntity},
		{"insufficient balance", models.ErrInsufficientBalance, http.StatusPaymentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, withdrawals, tokens, router := newTestServer(t)
			withdrawals.On("Request", mock.Anything, int64(7), mock.Anything).Return(nil, tt.serviceErr)

			req := httptest.NewRequest(http.MethodPost, "/api/user/withdrawals", jsonBody(t, map[string]any{"amount": 600}))
			req.AddCookie(sessionCookie(t, tokens, 7, false))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAdminRoutes_RequireAdminToken(t *testing.T) {
	_, _, tokens, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/withdrawals", nil)
	req.AddCookie(sessionCookie(t, tokens, 7, false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminWithdrawalsHandler_DefaultsToPending(t *testing.T) {
	_, withdrawals, tokens, router := newTestServer(t)

	withdrawals.On("ListByStatus", mock.Anything, int64(99), models.WithdrawalStatusPending).
		Return([]*models.Withdrawal{{ID: 11, Status: models.WithdrawalStatusPending}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/withdrawals", nil)
	req.AddCookie(sessionCookie(t, tokens, 99, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	withdrawals.AssertExpectations(t)
}

func TestProcessWithdrawalHandler(t *testing.T) {
	_, withdrawals, tokens, router := newTestServer(t)

	withdrawals.On("Process", mock.Anything, int64(99), int64(11), models.WithdrawalStatusApproved, "paid").
		Return(&models.Withdrawal{ID: 11, Status: models.WithdrawalStatusApproved}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/withdrawals/11/process", jsonBody(t, map[string]string{
		"status": "approved",
		"notes":  "paid",
	}))
	req.AddCookie(sessionCookie(t, tokens, 99, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProcessWithdrawalHandler_Conflicts(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"already processed", models.ErrWithdrawalNotPending, http.StatusConflict},
		{"unknown withdrawal", models.ErrWithdrawalNotFound, http.StatusNotFound},
		{"invalid decision", models.ErrInvalidDecision, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, withdrawals, tokens, router := newTestServer(t)
			withdrawals.On("Process", mock.Anything, int64(99), int64(11), mock.Anything, mock.Anything).
				Return(nil, tt.serviceErr)

			req := httptest.NewRequest(http.MethodPost, "/api/admin/withdrawals/11/process", jsonBody(t, map[string]string{
				"status": "approved",
			}))
			req.AddCookie(sessionCookie(t, tokens, 99, true))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestProcessWithdrawalHandler_BadID(t *testing.T) {
	_, _, tokens, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/withdrawals/abc/process", jsonBody(t, map[string]string{
		"status": "approved",
	}))
	req.AddCookie(sessionCookie(t, tokens, 99, true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutHandler_ClearsCookie(t *testing.T) {
	_, _, _, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestHealthHandler(t *testing.T) {
	_, _, _, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
