package vehicle

import (
	"github.com/shopspring/decimal"

	"fleet-sync/core/reconcile"
	"fleet-sync/feature/vehicle/models"
)

// Adapter exposes vehicle records to the synchronization engine. The VIN
// is the stable key; everything else the engine needs comes off the record.
type Adapter struct{}

var _ reconcile.Adapter = Adapter{}

func (Adapter) Name() string { return "vehicle" }

func (Adapter) Key(rec reconcile.Record) string {
	return rec.(*models.VehicleRecord).VIN
}

func (Adapter) Price(rec reconcile.Record) decimal.Decimal {
	return rec.(*models.VehicleRecord).SalesPrice
}

func (Adapter) Fingerprint(rec reconcile.Record) string {
	return rec.(*models.VehicleRecord).Fingerprint()
}

func (Adapter) Line(rec reconcile.Record) int {
	return rec.(*models.VehicleRecord).SourceLine
}
