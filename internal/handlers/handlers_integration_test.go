package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/gateways"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const webhookSecret = "whsec_integration"

// testEnv wires the full HTTP surface against in-memory SQLite, a fake card
// provider backend and the real card gateway, mirroring main.go.
type testEnv struct {
	app        *fiber.App
	provider   *httptest.Server
	card       *gateways.CardGateway
	inventory  repositories.InventoryRepository
	lastRef    *atomic.Value // provider ref of the most recent intent
	customerID string        // ID of the seeded customer account
}

// setupEnv sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	// A unique shared-cache name keeps each test's database isolated while
	// surviving GORM's connection pooling.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.InventoryRecord{}, &models.User{},
		&models.Order{}, &models.OrderLine{}, &models.PaymentRecord{}, &models.Review{},
	))

	// Fake card provider backend: every intent gets a fresh reference.
	lastRef := &atomic.Value{}
	var intentSeq atomic.Int64
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment_intents":
			ref := fmt.Sprintf("pi_%d", intentSeq.Add(1))
			lastRef.Store(ref)
			json.NewEncoder(w).Encode(map[string]string{"id": ref, "client_secret": "cs_" + ref})
		case "/v1/refunds":
			json.NewEncoder(w).Encode(map[string]string{"id": "re_1"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(provider.Close)

	card := gateways.NewCardGateway(gateways.CardConfig{
		APIKey:        "sk_test",
		WebhookSecret: webhookSecret,
		Endpoint:      provider.URL,
	})
	registry := gateways.NewRegistry(card)

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	inventoryRepo := repositories.NewGORMInventoryRepository(db)
	paymentRepo := repositories.NewGORMPaymentRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)
	guard := repositories.NewMockIdempotencyGuard()

	pricing := services.NewPricingService(services.DefaultShippingPolicy(), services.DefaultTaxPolicy())
	productService := services.NewProductService(productRepo, inventoryRepo)
	checkoutService := services.NewCheckoutService(orderRepo, productRepo, inventoryRepo, paymentRepo, pricing, registry, nil)
	webhookService := services.NewWebhookService(orderRepo, inventoryRepo, paymentRepo, guard, registry, nil, services.FailurePolicyRetry)
	orderService := services.NewOrderService(orderRepo, inventoryRepo, paymentRepo, registry, nil)
	authService := services.NewAuthService(userRepo, jwtSecret)
	reviewService := services.NewReviewService(reviewRepo, productRepo, orderRepo)

	productHandler := handlers.NewProductHandler(productService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, webhookService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(authService)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	// Public: auth, catalog reads, the checkout pipeline and webhooks.
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	checkoutHandler.RegisterRoutes(apiV1)
	reviewHandler.RegisterRoutes(apiV1)

	// Protected: order retrieval, cancellation and reviews.
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	orderHandler.RegisterRoutes(protectedRoutes)
	reviewHandler.RegisterAuthRoutes(protectedRoutes)

	// Admin: catalog management and fulfillment transitions.
	adminRoutes := apiV1.Group("/admin", middleware.AuthRequired(authService), middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(adminRoutes)
	orderHandler.RegisterAdminRoutes(adminRoutes)

	// Seed accounts for both roles.
	require.NoError(t, authService.RegisterUser(&models.User{
		Username: "admin", Email: "admin@example.com", Password: "adminpass", Role: "admin",
	}))
	customer := models.User{
		Username: "customer", Email: "customer@example.com", Password: "customerpass",
	}
	require.NoError(t, authService.RegisterUser(&customer))

	return &testEnv{
		app:        app,
		provider:   provider,
		card:       card,
		inventory:  inventoryRepo,
		lastRef:    lastRef,
		customerID: customer.ID,
	}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body["token"])
	return body["token"]
}

// createProduct seeds a product with stock through the admin API.
func (e *testEnv) createProduct(t *testing.T, adminToken string, stock int) models.Product {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/admin/products", adminToken, map[string]interface{}{
		"name":          "Field Notebook",
		"sku":           "FN-" + uuid.New().String()[:8],
		"price":         10.00,
		"currency":      "USD",
		"is_active":     true,
		"initial_stock": stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var product models.Product
	decodeJSON(t, resp, &product)
	require.NotEmpty(t, product.ID)
	return product
}

func (e *testEnv) checkoutBody(productID string, quantity int) map[string]interface{} {
	address := map[string]string{
		"first_name":  "Ada",
		"last_name":   "Lovelace",
		"street":      "1 Analytical Way",
		"city":        "New York",
		"state":       "NY",
		"postal_code": "10001",
		"country":     "US",
	}
	return map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_id": productID, "quantity": quantity, "unit_price": 10.00},
		},
		"shipping_address": address,
		"billing_address":  address,
		"payment_provider": "card",
	}
}

// webhookBody builds a signed provider callback for the given order.
func (e *testEnv) webhookBody(t *testing.T, eventType, orderID, ref string) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"event_id":   "evt_" + uuid.New().String()[:8],
		"event_type": eventType,
		"order_id":   orderID,
		"reference":  ref,
	})
	require.NoError(t, err)
	return body, e.card.SignWebhook(body, time.Now())
}

func (e *testEnv) deliverWebhook(t *testing.T, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/webhook/card", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) stock(t *testing.T, productID string) (available, reserved int) {
	t.Helper()
	record, err := e.inventory.GetByProductID(productID)
	require.NoError(t, err)
	return record.QuantityAvailable, record.QuantityReserved
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate username is rejected.
	resp = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "newuser",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	token := env.login(t, "newuser", "password123")
	assert.NotEmpty(t, token)
}

func TestCheckoutToConfirmationFlow(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 10)

	// Validate the cart.
	resp := env.do(t, http.MethodPost, "/api/v1/checkout/validate", "", map[string]interface{}{
		"lines": []map[string]interface{}{{"product_id": product.ID, "quantity": 2}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Price it.
	resp = env.do(t, http.MethodPost, "/api/v1/checkout/calculate", "", map[string]interface{}{
		"lines":   []map[string]interface{}{{"product_id": product.ID, "quantity": 2}},
		"address": env.checkoutBody(product.ID, 2)["shipping_address"],
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var quote services.Quote
	decodeJSON(t, resp, &quote)
	assert.Equal(t, 20.00, quote.Subtotal)
	assert.Equal(t, 5.99, quote.ShippingAmount)
	assert.InDelta(t, 1.60, quote.TaxAmount, 0.0001)
	assert.Equal(t, 27.59, quote.TotalAmount)

	// Place the order as the seeded customer.
	orderBody := env.checkoutBody(product.ID, 2)
	orderBody["user_id"] = env.customerID
	resp = env.do(t, http.MethodPost, "/api/v1/checkout/order", "", orderBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Order   models.Order    `json:"order"`
		Payment gateways.Intent `json:"payment"`
	}
	decodeJSON(t, resp, &result)
	assert.Equal(t, models.OrderPending, result.Order.Status)
	assert.Equal(t, 27.59, result.Order.TotalAmount)
	assert.NotEmpty(t, result.Payment.ProviderRef)
	assert.NotEmpty(t, result.Payment.ClientPayload["client_secret"])

	available, reserved := env.stock(t, product.ID)
	assert.Equal(t, 8, available)
	assert.Equal(t, 2, reserved)

	// The provider confirms the payment asynchronously.
	body, signature := env.webhookBody(t, "payment.succeeded", result.Order.ID, result.Payment.ProviderRef)
	resp = env.deliverWebhook(t, body, signature)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Order confirmed, reservation converted to a deduction.
	customerToken := env.login(t, "customer", "customerpass")
	resp = env.do(t, http.MethodGet, "/api/v1/orders/"+result.Order.ID, customerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var confirmed models.Order
	decodeJSON(t, resp, &confirmed)
	assert.Equal(t, models.OrderConfirmed, confirmed.Status)
	assert.Equal(t, models.PaymentSucceeded, confirmed.PaymentStatus)
	require.Len(t, confirmed.Lines, 1)
	assert.Equal(t, 2, confirmed.Lines[0].Quantity)

	available, reserved = env.stock(t, product.ID)
	assert.Equal(t, 8, available)
	assert.Equal(t, 0, reserved)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 5)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout/order", "", env.checkoutBody(product.ID, 1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Order   models.Order    `json:"order"`
		Payment gateways.Intent `json:"payment"`
	}
	decodeJSON(t, resp, &result)

	body, _ := env.webhookBody(t, "payment.succeeded", result.Order.ID, result.Payment.ProviderRef)

	resp = env.deliverWebhook(t, body, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Altering the body after signing must also fail.
	_, signature := env.webhookBody(t, "payment.succeeded", result.Order.ID, result.Payment.ProviderRef)
	tampered := bytes.Replace(body, []byte("payment.succeeded"), []byte("payment.failed\x20\x20\x20"), 1)
	resp = env.deliverWebhook(t, tampered, signature)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Nothing was applied: the reservation is still held.
	available, reserved := env.stock(t, product.ID)
	assert.Equal(t, 4, available)
	assert.Equal(t, 1, reserved)
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 5)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout/order", "", env.checkoutBody(product.ID, 3))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Order   models.Order    `json:"order"`
		Payment gateways.Intent `json:"payment"`
	}
	decodeJSON(t, resp, &result)

	body, signature := env.webhookBody(t, "payment.succeeded", result.Order.ID, result.Payment.ProviderRef)
	for i := 0; i < 3; i++ {
		resp = env.deliverWebhook(t, body, signature)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	// Stock deducted exactly once across the redeliveries.
	available, reserved := env.stock(t, product.ID)
	assert.Equal(t, 2, available)
	assert.Equal(t, 0, reserved)
}

func TestCheckoutFailsOnInsufficientStock(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 2)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout/order", "", env.checkoutBody(product.ID, 3))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	available, reserved := env.stock(t, product.ID)
	assert.Equal(t, 2, available)
	assert.Equal(t, 0, reserved)
}

func TestFailedPaymentReleasesStockAndAllowsRetry(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 5)

	orderBody := env.checkoutBody(product.ID, 2)
	orderBody["user_id"] = env.customerID
	resp := env.do(t, http.MethodPost, "/api/v1/checkout/order", "", orderBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Order   models.Order    `json:"order"`
		Payment gateways.Intent `json:"payment"`
	}
	decodeJSON(t, resp, &result)

	body, signature := env.webhookBody(t, "payment.failed", result.Order.ID, result.Payment.ProviderRef)
	resp = env.deliverWebhook(t, body, signature)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	available, reserved := env.stock(t, product.ID)
	assert.Equal(t, 5, available)
	assert.Equal(t, 0, reserved)

	// Retry with a fresh attempt.
	resp = env.do(t, http.MethodPost, "/api/v1/checkout/payment", "", map[string]string{
		"order_id":         result.Order.ID,
		"payment_provider": "card",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var retry struct {
		Order   models.Order    `json:"order"`
		Payment gateways.Intent `json:"payment"`
	}
	decodeJSON(t, resp, &retry)
	assert.NotEqual(t, result.Payment.ProviderRef, retry.Payment.ProviderRef)

	available, reserved = env.stock(t, product.ID)
	assert.Equal(t, 3, available)
	assert.Equal(t, 2, reserved)

	// The second attempt succeeds and the order completes.
	body, signature = env.webhookBody(t, "payment.succeeded", result.Order.ID, retry.Payment.ProviderRef)
	resp = env.deliverWebhook(t, body, signature)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	customerToken := env.login(t, "customer", "customerpass")
	resp = env.do(t, http.MethodGet, "/api/v1/orders/"+result.Order.ID, customerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var confirmed models.Order
	decodeJSON(t, resp, &confirmed)
	assert.Equal(t, models.OrderConfirmed, confirmed.Status)
}

func TestCancelPendingOrderReleasesStock(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 5)

	orderBody := env.checkoutBody(product.ID, 2)
	orderBody["user_id"] = env.customerID
	resp := env.do(t, http.MethodPost, "/api/v1/checkout/order", "", orderBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Order models.Order `json:"order"`
	}
	decodeJSON(t, resp, &result)

	customerToken := env.login(t, "customer", "customerpass")
	resp = env.do(t, http.MethodPost, "/api/v1/orders/"+result.Order.ID+"/cancel", customerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled models.Order
	decodeJSON(t, resp, &cancelled)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)

	available, reserved := env.stock(t, product.ID)
	assert.Equal(t, 5, available)
	assert.Equal(t, 0, reserved)
}

func TestAdminRoutesEnforceRole(t *testing.T) {
	env := setupEnv(t)

	// No token at all.
	resp := env.do(t, http.MethodPost, "/api/v1/admin/products", "", map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Customer token lacks the admin role.
	customerToken := env.login(t, "customer", "customerpass")
	resp = env.do(t, http.MethodPost, "/api/v1/admin/products", customerToken, map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Admin token passes.
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 1)
	assert.NotEmpty(t, product.ID)
}

func TestAdminFulfillmentTransitions(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 5)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout/order", "", env.checkoutBody(product.ID, 1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Order   models.Order    `json:"order"`
		Payment gateways.Intent `json:"payment"`
	}
	decodeJSON(t, resp, &result)

	// Cannot move a pending order forward before payment.
	resp = env.do(t, http.MethodPatch, "/api/v1/admin/orders/"+result.Order.ID+"/status", adminToken,
		map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	body, signature := env.webhookBody(t, "payment.succeeded", result.Order.ID, result.Payment.ProviderRef)
	resp = env.deliverWebhook(t, body, signature)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	for _, status := range []string{"processing", "shipped", "delivered"} {
		resp = env.do(t, http.MethodPatch, "/api/v1/admin/orders/"+result.Order.ID+"/status", adminToken,
			map[string]string{"status": status})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var order models.Order
		decodeJSON(t, resp, &order)
		assert.Equal(t, models.OrderStatus(status), order.Status)
	}
}

func TestPublicCatalogAndStock(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 7)

	resp := env.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decodeJSON(t, resp, &products)
	assert.Len(t, products, 1)

	resp = env.do(t, http.MethodGet, "/api/v1/products/"+product.ID+"/stock", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var record models.InventoryRecord
	decodeJSON(t, resp, &record)
	assert.Equal(t, 7, record.QuantityAvailable)
	assert.Equal(t, 0, record.QuantityReserved)

	// Admin restock preserves reservations.
	resp = env.do(t, http.MethodPut, "/api/v1/admin/products/"+product.ID+"/stock", adminToken,
		map[string]int{"available": 20})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	available, reserved := env.stock(t, product.ID)
	assert.Equal(t, 20, available)
	assert.Equal(t, 0, reserved)
}

func TestOrderAccessRestrictedToOwner(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 5)

	// A guest order has no owner.
	resp := env.do(t, http.MethodPost, "/api/v1/checkout/order", "", env.checkoutBody(product.ID, 1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Order models.Order `json:"order"`
	}
	decodeJSON(t, resp, &result)

	customerToken := env.login(t, "customer", "customerpass")
	resp = env.do(t, http.MethodGet, "/api/v1/orders/"+result.Order.ID, customerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/v1/orders/"+result.Order.ID+"/cancel", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The blocked cancel must not have released anything.
	available, reserved := env.stock(t, product.ID)
	assert.Equal(t, 4, available)
	assert.Equal(t, 1, reserved)

	// Admins can still see and cancel it.
	resp = env.do(t, http.MethodGet, "/api/v1/orders/"+result.Order.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/v1/orders/"+result.Order.ID+"/cancel", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterCannotGrantAdmin(t *testing.T) {
	env := setupEnv(t)

	// A role field in the registration body is ignored.
	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "sneaky",
		"email":    "sneaky@example.com",
		"password": "password123",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	token := env.login(t, "sneaky", "password123")
	resp = env.do(t, http.MethodPost, "/api/v1/admin/products", token, map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestReviewLifecycle(t *testing.T) {
	env := setupEnv(t)
	adminToken := env.login(t, "admin", "adminpass")
	product := env.createProduct(t, adminToken, 5)

	// The customer buys the product so their review counts as verified.
	orderBody := env.checkoutBody(product.ID, 1)
	orderBody["user_id"] = env.customerID
	resp := env.do(t, http.MethodPost, "/api/v1/checkout/order", "", orderBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Order   models.Order    `json:"order"`
		Payment gateways.Intent `json:"payment"`
	}
	decodeJSON(t, resp, &result)

	body, signature := env.webhookBody(t, "payment.succeeded", result.Order.ID, result.Payment.ProviderRef)
	resp = env.deliverWebhook(t, body, signature)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	customerToken := env.login(t, "customer", "customerpass")
	resp = env.do(t, http.MethodPost, "/api/v1/products/"+product.ID+"/reviews", customerToken, map[string]interface{}{
		"rating":  5,
		"title":   "Great notebook",
		"content": "Survived a week of rain.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var review models.Review
	decodeJSON(t, resp, &review)
	assert.True(t, review.VerifiedPurchase)
	assert.Equal(t, 5, review.Rating)

	// A second review of the same product is rejected.
	resp = env.do(t, http.MethodPost, "/api/v1/products/"+product.ID+"/reviews", customerToken,
		map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Another customer cannot edit it.
	resp = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "rival", "email": "rival@example.com", "password": "rivalpass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	rivalToken := env.login(t, "rival", "rivalpass")
	resp = env.do(t, http.MethodPut, "/api/v1/reviews/"+review.ID, rivalToken,
		map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Without a purchase the rival's own review stays unverified.
	resp = env.do(t, http.MethodPost, "/api/v1/products/"+product.ID+"/reviews", rivalToken,
		map[string]interface{}{"rating": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rivalReview models.Review
	decodeJSON(t, resp, &rivalReview)
	assert.False(t, rivalReview.VerifiedPurchase)

	// The public listing carries the rating summary.
	resp = env.do(t, http.MethodGet, "/api/v1/products/"+product.ID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Reviews []models.Review      `json:"reviews"`
		Summary models.ReviewSummary `json:"summary"`
	}
	decodeJSON(t, resp, &listing)
	assert.Len(t, listing.Reviews, 2)
	assert.Equal(t, 2, listing.Summary.TotalReviews)
	assert.InDelta(t, 4.0, listing.Summary.AverageRating, 0.0001)

	// The author can edit their own review.
	resp = env.do(t, http.MethodPut, "/api/v1/reviews/"+review.ID, customerToken,
		map[string]interface{}{"rating": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edited models.Review
	decodeJSON(t, resp, &edited)
	assert.Equal(t, 4, edited.Rating)
}
