package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fortmix-erp/internal/auth"
	"fortmix-erp/internal/export"
	"fortmix-erp/internal/models"
	"fortmix-erp/internal/store"
	"fortmix-erp/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handlers_test_secret_key_long_enough"

type fakeAssistant struct{ reply string }

func (f fakeAssistant) Ask(_ context.Context, message string) (string, error) {
	return f.reply + ": " + message, nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, opts store.Options, assistant Assistant) *testServer {
	gin.SetMode(gin.TestMode)
	st, db := testutil.NewStore(t, opts)
	tokens := auth.NewTokenManager(testSecret, time.Hour)

	r := gin.New()
	RegisterRoutes(r, New(st, tokens, assistant, time.UTC), tokens)
	return &testServer{t: t, router: r, db: db, tokens: tokens}
}

func (s *testServer) tokenFor(role models.Role) (string, *models.User) {
	s.t.Helper()
	user := testutil.SeedUser(s.t, s.db, string(role), role)
	token, err := s.tokens.GenerateToken(user)
	require.NoError(s.t, err)
	return token, user
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, store.Options{}, nil)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"online"}`, w.Body.String())
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, store.Options{}, nil)
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	user := &models.User{Username: "owner", PasswordHash: hash, Name: "Ana", Role: models.RoleOwner}
	require.NoError(t, s.db.Create(user).Error)

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "owner", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	decode(t, w, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "Owner", body.User["role"])
	assert.NotContains(t, w.Body.String(), hash)

	assert.Equal(t, int64(1), testutil.Count(t, s.db, &models.AuditLog{}, "action = ?", "LOGIN"))

	me := s.do(http.MethodGet, "/api/auth/me", body.Token, nil)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"username":"owner"`)

	for _, creds := range []gin.H{
		{"username": "owner", "password": "wrong-pass"},
		{"username": "ghost", "password": "secret123"},
	} {
		w := s.do(http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	assert.Equal(t, int64(1), testutil.Count(t, s.db, &models.AuditLog{}, "action = ?", "LOGIN"))

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t, store.Options{}, nil)
	seller, _ := s.tokenFor(models.RoleSalesperson)
	clerk, _ := s.tokenFor(models.RoleStockClerk)
	manager, _ := s.tokenFor(models.RoleManager)

	product := gin.H{"code": "X1", "name": "Thing", "price": 1, "cost_price": 0.5}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/api/products", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/products", "nope", nil, http.StatusUnauthorized},
		{"seller lists products", http.MethodGet, "/api/products", seller, nil, http.StatusOK},
		{"seller creates product", http.MethodPost, "/api/products", seller, product, http.StatusForbidden},
		{"seller updates product", http.MethodPut, "/api/products/1", seller, product, http.StatusForbidden},
		{"seller moves stock", http.MethodPost, "/api/stock/movements", seller, gin.H{}, http.StatusForbidden},
		{"seller exports", http.MethodGet, "/api/reports/sales/export", seller, nil, http.StatusForbidden},
		{"seller reads report", http.MethodGet, "/api/reports/sales", seller, nil, http.StatusOK},
		{"clerk creates product", http.MethodPost, "/api/products", clerk, product, http.StatusCreated},
		{"clerk asks assistant", http.MethodPost, "/api/assistant/ask", clerk, gin.H{"message": "hi"}, http.StatusForbidden},
		{"manager reads audit", http.MethodGet, "/api/audit", manager, nil, http.StatusForbidden},
		{"manager lists users", http.MethodGet, "/api/users", manager, nil, http.StatusForbidden},
		{"manager creates user", http.MethodPost, "/api/users", manager, gin.H{}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, store.Options{}, nil)
	owner, _ := s.tokenFor(models.RoleOwner)

	body := gin.H{
		"code": "001", "name": "Arroz 5kg", "category": "Food", "price": "32.90",
		"cost_price": "25.00", "stock_quantity": 100, "min_stock": 10, "unit": "kg",
	}
	w := s.do(http.MethodPost, "/api/products", owner, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	decode(t, w, &created)
	require.NotZero(t, created.ID)

	w = s.do(http.MethodPost, "/api/products", owner, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body["name"] = "Arroz Tipo 1"
	body["stock_quantity"] = 5
	w = s.do(http.MethodPut, "/api/products/1", owner, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, 100, testutil.Stock(t, s.db, created.ID))

	w = s.do(http.MethodPut, "/api/products/999", owner, body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/api/products/abc", owner, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body["price"] = "-1"
	w = s.do(http.MethodPut, "/api/products/1", owner, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/products", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var products []map[string]any
	decode(t, w, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "Arroz Tipo 1", products[0]["name"])
	assert.Equal(t, 32.9, products[0]["price"])

	w = s.do(http.MethodGet, "/api/products/critical", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCreateSale_Scenario(t *testing.T) {
	s := newTestServer(t, store.Options{}, nil)
	seller, user := s.tokenFor(models.RoleSalesperson)
	product := testutil.SeedProduct(t, s.db, "001", "32.90", "25.00", 100, 10)

	w := s.do(http.MethodPost, "/api/sales", seller, gin.H{
		"items":          []gin.H{{"id": product.ID, "quantity": 3, "price": "32.90"}},
		"payment_method": "pix",
		"total":          "98.70",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, 97, testutil.Stock(t, s.db, product.ID))
	assert.Equal(t, int64(1), testutil.Count(t, s.db, &models.StockMovement{}, "type = ? AND user_id = ?", models.MovementOut, user.ID))
	assert.Equal(t, int64(1), testutil.Count(t, s.db, &models.AuditLog{}, "entity = ?", "sale"))

	w = s.do(http.MethodGet, "/api/dashboard/stats", seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Today struct {
			Count int64   `json:"count"`
			Total float64 `json:"total"`
		} `json:"today"`
		Month struct {
			Total float64 `json:"total"`
		} `json:"month"`
		CriticalStock int64 `json:"criticalStock"`
	}
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats.Today.Count)
	assert.Equal(t, 98.7, stats.Today.Total)
	assert.Equal(t, 23.7, stats.Month.Total)
	assert.Zero(t, stats.CriticalStock)
}

func TestCreateSale_Errors(t *testing.T) {
	s := newTestServer(t, store.Options{StrictStock: true}, nil)
	seller, _ := s.tokenFor(models.RoleSalesperson)
	product := testutil.SeedProduct(t, s.db, "001", "10.00", "5.00", 2, 0)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"empty cart", gin.H{"items": []gin.H{}, "payment_method": "cash", "total": 0}, http.StatusBadRequest},
		{"zero quantity", gin.H{"items": []gin.H{{"id": product.ID, "quantity": 0, "price": 10}}, "payment_method": "cash", "total": 0}, http.StatusBadRequest},
		{"no payment method", gin.H{"items": []gin.H{{"id": product.ID, "quantity": 1, "price": 10}}, "total": 10}, http.StatusBadRequest},
		{"total mismatch", gin.H{"items": []gin.H{{"id": product.ID, "quantity": 1, "price": 10}}, "payment_method": "cash", "total": 1}, http.StatusBadRequest},
		{"oversell", gin.H{"items": []gin.H{{"id": product.ID, "quantity": 3, "price": 10}}, "payment_method": "cash", "total": 30}, http.StatusBadRequest},
		{"unknown product", gin.H{"items": []gin.H{{"id": 999, "quantity": 1, "price": 10}}, "payment_method": "cash", "total": 10}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/sales", seller, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	assert.Equal(t, 2, testutil.Stock(t, s.db, product.ID))
	assert.Zero(t, testutil.Count(t, s.db, &models.Sale{}))
	assert.Zero(t, testutil.Count(t, s.db, &models.SaleItem{}))
}

func TestStockMovements(t *testing.T) {
	s := newTestServer(t, store.Options{}, nil)
	clerk, _ := s.tokenFor(models.RoleStockClerk)
	product := testutil.SeedProduct(t, s.db, "001", "10.00", "5.00", 2, 0)

	w := s.do(http.MethodPost, "/api/stock/movements", clerk, gin.H{
		"product_id": product.ID, "type": "IN", "quantity": 10, "reason": "Delivery",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 12, testutil.Stock(t, s.db, product.ID))

	w = s.do(http.MethodPost, "/api/stock/movements", clerk, gin.H{
		"product_id": product.ID, "type": "OUT", "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/stock/movements", clerk, gin.H{
		"product_id": 999, "type": "IN", "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/stock/movements?from=2000-01-01", clerk, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var movements []map[string]any
	decode(t, w, &movements)
	require.Len(t, movements, 1)
	assert.Equal(t, "Product 001", movements[0]["product_name"])

	w = s.do(http.MethodGet, "/api/stock/movements?from=yesterday", clerk, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/stock/movements?from=2024-02-01&to=2024-01-01", clerk, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsersAndAudit(t *testing.T) {
	s := newTestServer(t, store.Options{}, nil)
	owner, _ := s.tokenFor(models.RoleOwner)

	w := s.do(http.MethodPost, "/api/users", owner, gin.H{
		"username": "maria", "password": "secret123", "name": "Maria", "role": "Manager",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	decode(t, w, &created)

	w = s.do(http.MethodPost, "/api/users", owner, gin.H{
		"username": "maria", "password": "secret123", "role": "Manager",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/users", owner, gin.H{
		"username": "joao", "password": "123", "role": "Manager",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/users", owner, gin.H{
		"username": "joao", "password": "secret123", "role": "Janitor",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/users/999", owner, gin.H{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/api/users/"+jsonID(created.ID), owner, gin.H{"role": "Salesperson", "password": "another1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	login := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "maria", "password": "another1"})
	require.Equal(t, http.StatusOK, login.Code)
	assert.Contains(t, login.Body.String(), `"role":"Salesperson"`)

	w = s.do(http.MethodGet, "/api/users", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodGet, "/api/audit", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []map[string]any
	decode(t, w, &logs)
	require.Len(t, logs, 3) // create, update, login
	assert.Equal(t, "LOGIN", logs[0]["action"])
}

func TestExportSalesReport(t *testing.T) {
	s := newTestServer(t, store.Options{}, nil)
	manager, user := s.tokenFor(models.RoleManager)
	product := testutil.SeedProduct(t, s.db, "001", "10.00", "5.00", 10, 0)

	w := s.do(http.MethodPost, "/api/sales", manager, gin.H{
		"items":          []gin.H{{"id": product.ID, "quantity": 2, "price": "10.00"}},
		"payment_method": "cash",
		"total":          "20.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/reports/sales", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		Sales []struct {
			UserName string `json:"user_name"`
		} `json:"sales"`
		TopProducts []map[string]any `json:"topProducts"`
		NetProfit   float64          `json:"netProfit"`
	}
	decode(t, w, &report)
	require.Len(t, report.Sales, 1)
	assert.Equal(t, user.Name, report.Sales[0].UserName)
	assert.Len(t, report.TopProducts, 1)
	assert.Equal(t, 10.0, report.NetProfit)

	w = s.do(http.MethodGet, "/api/reports/sales/export?from=2000-01-01&to=2999-12-31", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.NotZero(t, w.Body.Len())
}

func TestAskAI(t *testing.T) {
	disabled := newTestServer(t, store.Options{}, nil)
	token, _ := disabled.tokenFor(models.RoleOwner)
	w := disabled.do(http.MethodPost, "/api/assistant/ask", token, gin.H{"message": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	enabled := newTestServer(t, store.Options{}, fakeAssistant{reply: "echo"})
	token, _ = enabled.tokenFor(models.RoleManager)
	w = enabled.do(http.MethodPost, "/api/assistant/ask", token, gin.H{"message": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"echo: hi"}`, w.Body.String())

	w = enabled.do(http.MethodPost, "/api/assistant/ask", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func jsonID(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
