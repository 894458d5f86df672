//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Production: create → confirm (BOM explosion + reservation) → issue →
//     stages → completion → stock-in
//   - Trade: purchase order pair → confirm → ship → deliver → buyer stock-in
//   - Transfer: confirm → issue at source → receive at destination
//   - Shortage: confirmation is rejected atomically, ledger untouched

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/config"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/infra"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/router"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server    *httptest.Server
	token     string // admin JWT
	db        *gorm.DB
	companyID uuid.UUID
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("scm_test"),
		tcPostgres.WithUsername("scm"),
		tcPostgres.WithPassword("scm"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	// Stub master-data registry: every item and warehouse exists
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"%s","sku":"SKU-1","name":"Test Item","unit":"pcs"}`,
			r.URL.Path[len(r.URL.Path)-36:])
	}))
	t.Cleanup(registry.Close)

	cfg := &config.Config{
		Port:                8000,
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTExpirationHours:  8,
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		MasterDataURL:       registry.URL,
		WorkerPoolSize:      1,
		PickListStoragePath: t.TempDir(),
		OverproductionPct:   10,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed an admin account
	companyID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("scm-e2e-2026"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Account{
		ID:           uuid.New(),
		Username:     "admin.e2e",
		FullName:     "Admin E2E",
		PasswordHash: string(hash),
		Role:         "admin",
		CompanyID:    companyID,
		Active:       true,
	}).Error)

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	r := router.New(cfg, db, rdb, cb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "scm-e2e-2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{
		server:    srv,
		token:     loginBody.AccessToken,
		db:        db,
		companyID: companyID,
	}
}

func (env *testEnv) seedStock(t *testing.T, itemID, warehouseID uuid.UUID, onHand int) {
	t.Helper()
	require.NoError(t, env.db.Create(&model.InventoryRecord{
		ID: uuid.New(), ItemID: itemID, WarehouseID: warehouseID,
		CompanyID: env.companyID, OnHand: onHand,
	}).Error)
}

func (env *testEnv) seedBOMComponent(t *testing.T, parentID, componentID uuid.UUID, perUnit int) {
	t.Helper()
	require.NoError(t, env.db.Create(&model.BOMComponent{
		ID: uuid.New(), ParentItemID: parentID, ComponentItemID: componentID, QuantityPer: perUnit,
	}).Error)
}

// issueTicketFor looks up the issue ticket spawned for a document.
func (env *testEnv) issueTicketFor(t *testing.T, refType model.DocumentType, refID uuid.UUID) *model.IssueTicket {
	t.Helper()
	var ticket model.IssueTicket
	require.NoError(t, env.db.
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		First(&ticket).Error)
	return &ticket
}

func (env *testEnv) receiveTicketFor(t *testing.T, refType model.DocumentType, refID uuid.UUID) *model.ReceiveTicket {
	t.Helper()
	var ticket model.ReceiveTicket
	require.NoError(t, env.db.
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		First(&ticket).Error)
	return &ticket
}

// checkAvailability runs the advisory endpoint for a single line and returns it.
func (env *testEnv) checkAvailability(t *testing.T, warehouseID, itemID uuid.UUID, qty int) struct {
	OnHand    int
	Reserved  int
	Available int
	Status    string
} {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/availability",
		jsonBody(t, map[string]any{
			"warehouse_id": warehouseID.String(),
			"lines":        []map[string]any{{"item_id": itemID.String(), "quantity": qty}},
		}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Lines []struct {
			OnHand    int    `json:"on_hand"`
			Reserved  int    `json:"reserved"`
			Available int    `json:"available"`
			Status    string `json:"status"`
		} `json:"lines"`
	}
	decodeJSON(t, resp, &body)
	require.Len(t, body.Lines, 1)
	return struct {
		OnHand    int
		Reserved  int
		Available int
		Status    string
	}(body.Lines[0])
}

func (env *testEnv) productionOrderStatus(t *testing.T, id string) string {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/production-orders/"+id, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &body)
	return body.Status
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Production flow: confirm explodes the BOM and reserves components, issuing
// deducts them, stage completion gates stock-in, completion mints serialized
// units and the receive ticket books finished goods on hand.
func TestE2E_ProductionFulfillmentCycle(t *testing.T) {
	env := setupTestEnv(t)

	warehouse := uuid.New()
	finished := uuid.New()
	compA := uuid.New()
	compB := uuid.New()
	env.seedStock(t, compA, warehouse, 100)
	env.seedStock(t, compB, warehouse, 200)
	env.seedBOMComponent(t, finished, compA, 2)
	env.seedBOMComponent(t, finished, compB, 5)

	// 1. Create: 10 units, two stages
	createResp := do(t, env.server, "POST", "/v1/production-orders",
		jsonBody(t, map[string]any{
			"warehouse_id": warehouse.String(),
			"item_id":      finished.String(),
			"quantity":     10,
			"stages":       []string{"assembly", "inspection"},
		}), env.token)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Stages []struct {
			ID       string `json:"id"`
			Sequence int    `json:"sequence"`
		} `json:"stages"`
	}
	decodeJSON(t, createResp, &order)
	require.Equal(t, "pending_confirmation", order.Status)
	require.Len(t, order.Stages, 2)

	// 2. Confirm: components reserved per BOM (10×2, 10×5)
	confirmResp := do(t, env.server, "POST", "/v1/production-orders/"+order.ID+"/confirm", nil, env.token)
	require.Equal(t, http.StatusOK, confirmResp.StatusCode)
	var pipeline struct {
		Status string `json:"status"`
	}
	decodeJSON(t, confirmResp, &pipeline)
	assert.Equal(t, "completed", pipeline.Status)

	availA := env.checkAvailability(t, warehouse, compA, 1)
	assert.Equal(t, 100, availA.OnHand)
	assert.Equal(t, 20, availA.Reserved)
	availB := env.checkAvailability(t, warehouse, compB, 1)
	assert.Equal(t, 50, availB.Reserved)

	// 3. Execute the spawned issue ticket: components leave the warehouse
	orderID := uuid.MustParse(order.ID)
	issue := env.issueTicketFor(t, model.DocProductionOrder, orderID)
	assert.Equal(t, model.StatusPendingIssue, issue.Status)

	issueResp := do(t, env.server, "POST", "/v1/issue-tickets/"+issue.ID.String()+"/execute", nil, env.token)
	require.Equal(t, http.StatusOK, issueResp.StatusCode)

	availA = env.checkAvailability(t, warehouse, compA, 1)
	assert.Equal(t, 80, availA.OnHand)
	assert.Equal(t, 0, availA.Reserved)
	assert.Equal(t, "in_production", env.productionOrderStatus(t, order.ID))

	// 4. Stages complete strictly in order; skipping ahead is rejected
	skipResp := do(t, env.server, "POST",
		"/v1/production-orders/"+order.ID+"/stages/"+order.Stages[1].ID+"/complete", nil, env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, skipResp.StatusCode)
	skipResp.Body.Close()

	for _, stage := range order.Stages {
		stageResp := do(t, env.server, "POST",
			"/v1/production-orders/"+order.ID+"/stages/"+stage.ID+"/complete", nil, env.token)
		require.Equal(t, http.StatusOK, stageResp.StatusCode)
		stageResp.Body.Close()
	}
	assert.Equal(t, "pending_stock_in", env.productionOrderStatus(t, order.ID))

	// 5. Record actual output of 9: one serialized unit each, shared batch
	completeResp := do(t, env.server, "POST", "/v1/production-orders/"+order.ID+"/complete",
		jsonBody(t, map[string]any{"completed_quantity": 9}), env.token)
	require.Equal(t, http.StatusOK, completeResp.StatusCode)
	var completion struct {
		BatchNo     string   `json:"batch_no"`
		UnitSerials []string `json:"unit_serials"`
	}
	decodeJSON(t, completeResp, &completion)
	assert.NotEmpty(t, completion.BatchNo)
	assert.Len(t, completion.UnitSerials, 9)

	// 6. Finished-goods stock-in at the actual quantity
	receive := env.receiveTicketFor(t, model.DocProductionOrder, orderID)
	receiveResp := do(t, env.server, "POST", "/v1/receive-tickets/"+receive.ID.String()+"/execute", nil, env.token)
	require.Equal(t, http.StatusOK, receiveResp.StatusCode)

	finishedAvail := env.checkAvailability(t, warehouse, finished, 1)
	assert.Equal(t, 9, finishedAvail.OnHand)
	assert.Equal(t, "completed", env.productionOrderStatus(t, order.ID))
}

// Trade flow: the purchase order and its sales order move in lock step from
// confirmation through shipping and delivery to buyer stock-in.
func TestE2E_TradeFulfillmentCycle(t *testing.T) {
	env := setupTestEnv(t)

	sellerID := uuid.New()
	sellerWarehouse := uuid.New()
	buyerWarehouse := uuid.New()
	item := uuid.New()

	// Seller stock lives under the seller's company
	require.NoError(t, env.db.Create(&model.InventoryRecord{
		ID: uuid.New(), ItemID: item, WarehouseID: sellerWarehouse,
		CompanyID: sellerID, OnHand: 40,
	}).Error)

	createResp := do(t, env.server, "POST", "/v1/purchase-orders",
		jsonBody(t, map[string]any{
			"seller_id":           sellerID.String(),
			"seller_warehouse_id": sellerWarehouse.String(),
			"warehouse_id":        buyerWarehouse.String(),
			"lines": []map[string]any{
				{"item_id": item.String(), "quantity": 15, "unit_price": "12.50"},
			},
		}), env.token)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var po struct {
		ID           string  `json:"id"`
		SalesOrderID *string `json:"sales_order_id"`
	}
	decodeJSON(t, createResp, &po)
	require.NotNil(t, po.SalesOrderID)

	// Confirm reserves at the seller's warehouse and moves both sides
	confirmResp := do(t, env.server, "POST", "/v1/purchase-orders/"+po.ID+"/confirm", nil, env.token)
	require.Equal(t, http.StatusOK, confirmResp.StatusCode)

	avail := env.checkAvailability(t, sellerWarehouse, item, 1)
	assert.Equal(t, 15, avail.Reserved)

	soResp := do(t, env.server, "GET", "/v1/sales-orders/"+*po.SalesOrderID, nil, env.token)
	require.Equal(t, http.StatusOK, soResp.StatusCode)
	var so struct {
		Status string `json:"status"`
	}
	decodeJSON(t, soResp, &so)
	assert.Equal(t, "confirmed", so.Status)

	// Issue at the seller: pair moves to shipping, a delivery order spawns
	soID := uuid.MustParse(*po.SalesOrderID)
	issue := env.issueTicketFor(t, model.DocSalesOrder, soID)
	issueResp := do(t, env.server, "POST", "/v1/issue-tickets/"+issue.ID.String()+"/execute", nil, env.token)
	require.Equal(t, http.StatusOK, issueResp.StatusCode)

	var delivery model.DeliveryOrder
	require.NoError(t, env.db.Where("sales_order_id = ?", soID).First(&delivery).Error)

	// Walk the delivery: confirm → pickup → drop-off
	resp := do(t, env.server, "POST", "/v1/delivery-orders/"+delivery.ID.String()+"/confirm", nil, env.token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/delivery-orders/"+delivery.ID.String()+"/pickup",
		jsonBody(t, map[string]any{"location": "seller dock 3"}), env.token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/delivery-orders/"+delivery.ID.String()+"/complete",
		jsonBody(t, map[string]any{"location": "buyer gate 1"}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Drop-off spawned the buyer-side receive ticket at the buyer warehouse
	poID := uuid.MustParse(po.ID)
	receive := env.receiveTicketFor(t, model.DocPurchaseOrder, poID)
	assert.Equal(t, buyerWarehouse, receive.WarehouseID)

	receiveResp := do(t, env.server, "POST", "/v1/receive-tickets/"+receive.ID.String()+"/execute", nil, env.token)
	require.Equal(t, http.StatusOK, receiveResp.StatusCode)

	buyerAvail := env.checkAvailability(t, buyerWarehouse, item, 1)
	assert.Equal(t, 15, buyerAvail.OnHand)

	poDetail := do(t, env.server, "GET", "/v1/purchase-orders/"+po.ID, nil, env.token)
	require.Equal(t, http.StatusOK, poDetail.StatusCode)
	var poBody struct {
		Status string `json:"status"`
	}
	decodeJSON(t, poDetail, &poBody)
	assert.Equal(t, "completed", poBody.Status)
}

// Transfer flow: stock leaves the source on issue and lands at the
// destination on receive.
func TestE2E_TransferCycle(t *testing.T) {
	env := setupTestEnv(t)

	source := uuid.New()
	dest := uuid.New()
	item := uuid.New()
	env.seedStock(t, item, source, 30)

	createResp := do(t, env.server, "POST", "/v1/transfer-requests",
		jsonBody(t, map[string]any{
			"from_warehouse_id": source.String(),
			"to_warehouse_id":   dest.String(),
			"lines":             []map[string]any{{"item_id": item.String(), "quantity": 12}},
		}), env.token)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var transfer struct {
		ID string `json:"id"`
	}
	decodeJSON(t, createResp, &transfer)

	confirmResp := do(t, env.server, "POST", "/v1/transfer-requests/"+transfer.ID+"/confirm", nil, env.token)
	require.Equal(t, http.StatusOK, confirmResp.StatusCode)

	transferID := uuid.MustParse(transfer.ID)
	issue := env.issueTicketFor(t, model.DocTransferRequest, transferID)
	issueResp := do(t, env.server, "POST", "/v1/issue-tickets/"+issue.ID.String()+"/execute", nil, env.token)
	require.Equal(t, http.StatusOK, issueResp.StatusCode)

	sourceAvail := env.checkAvailability(t, source, item, 1)
	assert.Equal(t, 18, sourceAvail.OnHand)
	assert.Equal(t, 0, sourceAvail.Reserved)

	receive := env.receiveTicketFor(t, model.DocTransferRequest, transferID)
	assert.Equal(t, dest, receive.WarehouseID)
	receiveResp := do(t, env.server, "POST", "/v1/receive-tickets/"+receive.ID.String()+"/execute", nil, env.token)
	require.Equal(t, http.StatusOK, receiveResp.StatusCode)

	destAvail := env.checkAvailability(t, dest, item, 1)
	assert.Equal(t, 12, destAvail.OnHand)

	var tr model.TransferRequest
	require.NoError(t, env.db.First(&tr, "id = ?", transferID).Error)
	assert.Equal(t, model.StatusCompleted, tr.Status)
}

// Shortage: confirmation fails all-or-nothing and leaves the ledger untouched.
func TestE2E_InsufficientStockRejectsConfirmation(t *testing.T) {
	env := setupTestEnv(t)

	warehouse := uuid.New()
	finished := uuid.New()
	component := uuid.New()
	env.seedStock(t, component, warehouse, 5)
	env.seedBOMComponent(t, finished, component, 3)

	createResp := do(t, env.server, "POST", "/v1/production-orders",
		jsonBody(t, map[string]any{
			"warehouse_id": warehouse.String(),
			"item_id":      finished.String(),
			"quantity":     10, // needs 30, only 5 on hand
			"stages":       []string{"assembly"},
		}), env.token)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var order struct {
		ID string `json:"id"`
	}
	decodeJSON(t, createResp, &order)

	confirmResp := do(t, env.server, "POST", "/v1/production-orders/"+order.ID+"/confirm", nil, env.token)
	assert.Equal(t, http.StatusConflict, confirmResp.StatusCode)
	var errBody struct {
		Code string `json:"code"`
	}
	decodeJSON(t, confirmResp, &errBody)
	assert.Equal(t, "INSUFFICIENT_INVENTORY", errBody.Code)

	avail := env.checkAvailability(t, warehouse, component, 1)
	assert.Equal(t, 5, avail.OnHand)
	assert.Equal(t, 0, avail.Reserved)
	assert.Equal(t, "pending_confirmation", env.productionOrderStatus(t, order.ID))
}
