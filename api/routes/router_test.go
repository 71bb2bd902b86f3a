package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/indents"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/inventory"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/issues"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/receipts"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/auth"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/dbtest"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/metrics"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
)

type testServer struct {
	handler http.Handler
	cfg     *config.Config
	college uuid.UUID
	store   uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	client := dbtest.Client(t)
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	gate := approval.NewRoleGate(nil)
	events := outbox.NewService(outbox.NewRepository(client.DB()), logg)

	indentSvc, err := indents.NewService(indents.NewRepository(client.DB()), client, gate, events, logg)
	require.NoError(t, err)
	ledger, err := inventory.NewService(inventory.ServiceParams{
		Repo:    inventory.NewRepository(client.DB()),
		Tx:      client,
		Gate:    gate,
		Outbox:  events,
		Metrics: metrics.NewLedgerMetrics(prometheus.NewRegistry()),
		Logger:  logg,
	})
	require.NoError(t, err)
	issueRepo := issues.NewRepository(client.DB())
	issueSvc, err := issues.NewService(issues.ServiceParams{
		Repo:    issueRepo,
		Tx:      client,
		Indents: indentSvc,
		Ledger:  ledger,
		Gate:    gate,
		Outbox:  events,
		Logger:  logg,
	})
	require.NoError(t, err)
	receiptSvc, err := receipts.NewService(issueRepo, client, gate, events, logg)
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "kumss-test", ExpirationMinutes: 30},
	}
	handler := NewRouter(cfg, logg, client, nil, nil, Services{
		Indents:  indentSvc,
		Issues:   issueSvc,
		Receipts: receiptSvc,
		Ledger:   ledger,
	})
	return &testServer{handler: handler, cfg: cfg, college: uuid.New(), store: uuid.New()}
}

func (s *testServer) token(t *testing.T, role enums.ActorRole) string {
	t.Helper()
	payload := auth.AccessTokenPayload{UserID: uuid.New(), Role: role}
	if role == enums.ActorRoleRequester || role == enums.ActorRoleCollegeAdmin {
		college := s.college
		payload.SiteID = &college
	}
	token, err := auth.MintAccessToken(s.cfg.JWT, time.Now(), payload)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

type indentBody struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Version int       `json:"version"`
	Items   []struct {
		ID     uuid.UUID `json:"id"`
		ItemID uuid.UUID `json:"item_id"`
	} `json:"items"`
}

type issueBody struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
	Items  []struct {
		ID uuid.UUID `json:"id"`
	} `json:"items"`
}

type recordBody struct {
	QuantityOnHand   string `json:"quantity_on_hand"`
	QuantityReserved string `json:"quantity_reserved"`
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "test", resp.Header().Get("X-Kumss-Env"))
}

func TestHealthReadyWithDatabaseOnly(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodGet, "/api/v1/indents", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPublicPing(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodGet, "/api/public/ping", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestRequesterCannotApprove(t *testing.T) {
	srv := newTestServer(t)
	requester := srv.token(t, enums.ActorRoleRequester)

	resp := srv.do(t, http.MethodPost, "/api/v1/indents", requester, map[string]any{
		"college_id": srv.college.String(),
		"store_id":   srv.store.String(),
		"items":      []map[string]any{{"item_id": uuid.NewString(), "requested_qty": "4", "unit": "pcs"}},
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var indent indentBody
	decodeData(t, resp, &indent)

	resp = srv.do(t, http.MethodPost, "/api/v1/indents/"+indent.ID.String()+"/submit", requester, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodPost, "/api/v1/indents/"+indent.ID.String()+"/college-decision", requester, map[string]any{"decision": "approve"})
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestCreateIndentRejectsInvalidBody(t *testing.T) {
	srv := newTestServer(t)
	requester := srv.token(t, enums.ActorRoleRequester)

	resp := srv.do(t, http.MethodPost, "/api/v1/indents", requester, map[string]any{
		"college_id": "not-a-uuid",
		"store_id":   srv.store.String(),
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestIndentToReceiptFlow(t *testing.T) {
	srv := newTestServer(t)
	requester := srv.token(t, enums.ActorRoleRequester)
	admin := srv.token(t, enums.ActorRoleCollegeAdmin)
	super := srv.token(t, enums.ActorRoleSuperAdmin)
	keeper := srv.token(t, enums.ActorRoleStoreKeeper)
	itemID := uuid.New()
	itemPath := "/api/v1/inventory/" + srv.store.String() + "/items/" + itemID.String()

	resp := srv.do(t, http.MethodPost, itemPath+"/adjust", keeper, map[string]any{
		"delta": "20", "reason": "opening balance", "unit": "pcs",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodPost, "/api/v1/indents", requester, map[string]any{
		"college_id":    srv.college.String(),
		"store_id":      srv.store.String(),
		"justification": "lab consumables",
		"items":         []map[string]any{{"item_id": itemID.String(), "requested_qty": "5", "unit": "pcs"}},
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var indent indentBody
	decodeData(t, resp, &indent)
	require.Equal(t, string(enums.IndentStatusDraft), indent.Status)
	indentPath := "/api/v1/indents/" + indent.ID.String()

	resp = srv.do(t, http.MethodPost, indentPath+"/submit", requester, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = srv.do(t, http.MethodPost, indentPath+"/college-decision", admin, map[string]any{"decision": "approve"})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = srv.do(t, http.MethodPost, indentPath+"/super-admin-decision", super, map[string]any{"decision": "approve"})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp, &indent)
	require.Equal(t, string(enums.IndentStatusSuperAdminApproved), indent.Status)

	resp = srv.do(t, http.MethodGet, indentPath+"/history", requester, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var history []map[string]any
	decodeData(t, resp, &history)
	require.Len(t, history, 4)

	resp = srv.do(t, http.MethodPost, indentPath+"/issues", keeper, map[string]any{
		"lines": []map[string]any{{"indent_item_id": indent.Items[0].ID.String(), "quantity": "5"}},
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var issue issueBody
	decodeData(t, resp, &issue)
	require.Equal(t, string(enums.MaterialIssueStatusPrepared), issue.Status)
	issuePath := "/api/v1/issues/" + issue.ID.String()

	resp = srv.do(t, http.MethodGet, itemPath, keeper, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var record recordBody
	decodeData(t, resp, &record)
	require.True(t, decimal.RequireFromString(record.QuantityOnHand).Equal(decimal.NewFromInt(20)))
	require.True(t, decimal.RequireFromString(record.QuantityReserved).Equal(decimal.NewFromInt(5)))

	resp = srv.do(t, http.MethodPost, issuePath+"/dispatch", keeper, map[string]any{"vehicle_ref": "KA-01-1234"})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp, &issue)
	require.Equal(t, string(enums.MaterialIssueStatusDispatched), issue.Status)

	resp = srv.do(t, http.MethodPost, issuePath+"/receipt", requester, map[string]any{
		"lines": []map[string]any{{"issue_item_id": issue.Items[0].ID.String(), "quantity": "5"}},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp, &issue)
	require.Equal(t, string(enums.MaterialIssueStatusReceived), issue.Status)

	resp = srv.do(t, http.MethodGet, itemPath+"/transactions", keeper, nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestIssueRejectsOverdraw(t *testing.T) {
	srv := newTestServer(t)
	requester := srv.token(t, enums.ActorRoleRequester)
	admin := srv.token(t, enums.ActorRoleCollegeAdmin)
	super := srv.token(t, enums.ActorRoleSuperAdmin)
	keeper := srv.token(t, enums.ActorRoleStoreKeeper)
	itemID := uuid.New()

	resp := srv.do(t, http.MethodPost, "/api/v1/inventory/"+srv.store.String()+"/items/"+itemID.String()+"/adjust", keeper, map[string]any{
		"delta": "2", "reason": "opening balance", "unit": "pcs",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodPost, "/api/v1/indents", requester, map[string]any{
		"college_id": srv.college.String(),
		"store_id":   srv.store.String(),
		"items":      []map[string]any{{"item_id": itemID.String(), "requested_qty": "6", "unit": "pcs"}},
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var indent indentBody
	decodeData(t, resp, &indent)
	indentPath := "/api/v1/indents/" + indent.ID.String()

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, indentPath+"/submit", requester, nil).Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, indentPath+"/college-decision", admin, map[string]any{"decision": "approve"}).Code)
	resp = srv.do(t, http.MethodPost, indentPath+"/super-admin-decision", super, map[string]any{"decision": "approve"})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp, &indent)

	resp = srv.do(t, http.MethodPost, indentPath+"/issues", keeper, map[string]any{
		"lines": []map[string]any{{"indent_item_id": indent.Items[0].ID.String(), "quantity": "6"}},
	})
	require.Equal(t, http.StatusConflict, resp.Code)
}
