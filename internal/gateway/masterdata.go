// Package gateway holds HTTP clients for external collaborators. The core
// never talks to master data directly — everything goes through these clients
// so outages degrade cleanly behind the circuit breaker.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/infra"

	"github.com/google/uuid"
)

// ErrNotFound distinguishes "the registry answered and says no such record"
// from registry outages, which surface as plain errors.
var ErrNotFound = errors.New("masterdata: not found")

// ItemInfo is the unit metadata the core needs about an item.
type ItemInfo struct {
	ID   uuid.UUID `json:"id"`
	SKU  string    `json:"sku"`
	Name string    `json:"name"`
	Unit string    `json:"unit"`
}

// WarehouseInfo is the capacity metadata the core needs about a warehouse.
type WarehouseInfo struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	CapacityM3 float64   `json:"capacity_m3"`
}

// MasterDataClient looks up item and warehouse master data from the registry
// service. All calls run through the shared circuit breaker.
type MasterDataClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *infra.CircuitBreaker
}

func NewMasterDataClient(baseURL string, cb *infra.CircuitBreaker) *MasterDataClient {
	return &MasterDataClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cb:         cb,
	}
}

// GetItem resolves one item's metadata.
func (c *MasterDataClient) GetItem(ctx context.Context, id uuid.UUID) (*ItemInfo, error) {
	var info ItemInfo
	err := c.cb.Execute(func() error {
		return c.getJSON(ctx, fmt.Sprintf("/v1/items/%s", id), &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetWarehouse resolves one warehouse's metadata.
func (c *MasterDataClient) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseInfo, error) {
	var info WarehouseInfo
	err := c.cb.Execute(func() error {
		return c.getJSON(ctx, fmt.Sprintf("/v1/warehouses/%s", id), &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ItemNames resolves display names for a set of items, best-effort: lookup
// failures leave entries missing rather than failing the batch. Used for pick
// list annotation, never for correctness decisions.
func (c *MasterDataClient) ItemNames(ctx context.Context, ids []uuid.UUID) map[string]string {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		info, err := c.GetItem(ctx, id)
		if err != nil {
			continue
		}
		names[id.String()] = info.Name
	}
	return names
}

func (c *MasterDataClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("masterdata: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("masterdata: registry unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("masterdata: registry returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("masterdata: decode response: %w", err)
	}
	return nil
}
