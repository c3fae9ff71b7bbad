// Package vehicle loads and normalizes the partner's CSV vehicle feed.
//
// The partner export is messy: Polish enum labels, locale decimal commas,
// literal "NULL" strings, zero-valued placeholders and pipe-concatenated
// descriptions. The normalizer translates all of that into the platform's
// canonical vocabulary before the loader validates each row into a
// models.VehicleRecord. Rows that fail validation become reconcile.RowError
// values; the run proceeds with the valid records and surfaces the errors
// untouched in the final report.
//
// The package also provides the reconcile.Adapter that plugs vehicle
// records into the synchronization engine.
package vehicle
