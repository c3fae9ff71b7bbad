package sync

import (
	"context"

	"github.com/shopspring/decimal"

	"fleet-sync/core/catalog"
	"fleet-sync/core/reconcile"
	"fleet-sync/feature/vehicle/models"
)

// Gateway adapts the catalog API client to the engine's Mutator interface.
// Error classification (transient vs permanent) happens in the catalog
// package; the gateway just shapes the calls.
type Gateway struct {
	client *catalog.Client
}

// NewGateway wraps a catalog client.
func NewGateway(client *catalog.Client) *Gateway {
	return &Gateway{client: client}
}

var _ reconcile.Mutator = (*Gateway)(nil)

func (g *Gateway) Create(ctx context.Context, rec reconcile.Record) (string, error) {
	return g.client.CreateVehicle(ctx, rec.(*models.VehicleRecord).APIPayload())
}

func (g *Gateway) UpdateFields(ctx context.Context, remoteID string, rec reconcile.Record) error {
	return g.client.UpdateVehicle(ctx, remoteID, rec.(*models.VehicleRecord).APIPayload())
}

func (g *Gateway) UpdatePrice(ctx context.Context, remoteID string, price decimal.Decimal, decreased bool) error {
	return g.client.UpdatePrice(ctx, remoteID, price, decreased)
}

func (g *Gateway) Close(ctx context.Context, remoteID string) error {
	return g.client.CloseVehicle(ctx, remoteID)
}
