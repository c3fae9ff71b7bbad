package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanedRow() map[string]string {
	return map[string]string{
		"vin":                "WVWZZZ1JZXW000001",
		"category":           "PASSENGER",
		"make":               "Toyota",
		"model":              "Corolla",
		"manufactureYear":    "2021",
		"mileage":            "12500",
		"engineCode":         "2ZR",
		"cubicCapacity":      "1998",
		"fuelType":           "PETROL",
		"power":              "122",
		"transmissionType":   "MANUAL",
		"driveWheels":        "FRONT",
		"type":               "SALOON",
		"color":              "Czarny",
		"pricing_listPrice":  "120000",
		"pricing_salesPrice": "99999.50",
	}
}

func TestFromRow_Valid(t *testing.T) {
	row := cleanedRow()
	row["doors"] = "5"
	row["availableFrom"] = "2026-09-01"

	rec, err := FromRow(row, 7)
	require.NoError(t, err)

	assert.Equal(t, "WVWZZZ1JZXW000001", rec.VIN)
	assert.Equal(t, 2021, rec.ManufactureYear)
	assert.Equal(t, 12500, rec.Mileage)
	require.NotNil(t, rec.Doors)
	assert.Equal(t, 5, *rec.Doors)
	require.NotNil(t, rec.AvailableFrom)
	assert.Equal(t, "2026-09-01", rec.AvailableFrom.Format("2006-01-02"))
	assert.True(t, rec.SalesPrice.Equal(decimal.RequireFromString("99999.50")))
	assert.Equal(t, 7, rec.SourceLine)
}

func TestFromRow_MissingFieldsCollected(t *testing.T) {
	row := cleanedRow()
	delete(row, "make")
	delete(row, "color")
	row["pricing_salesPrice"] = ""

	_, err := FromRow(row, 3)
	require.Error(t, err)
	assert.Equal(t, "missing required CSV fields: color, make, pricing_salesPrice", err.Error())
}

func TestFromRow_InvalidDate(t *testing.T) {
	row := cleanedRow()
	row["availableFrom"] = "someday"

	_, err := FromRow(row, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestFromRow_ZeroDoorsMeansAbsent(t *testing.T) {
	row := cleanedRow()
	row["doors"] = "0"

	rec, err := FromRow(row, 2)
	require.NoError(t, err)
	assert.Nil(t, rec.Doors)
}

func TestAPIPayload_Shape(t *testing.T) {
	row := cleanedRow()
	rec, err := FromRow(row, 2)
	require.NoError(t, err)

	data, err := json.Marshal(rec.APIPayload())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "WVWZZZ1JZXW000001", got["vin"])
	assert.Equal(t, "SALOON", got["type"])
	// Prices travel as strings to keep exact decimals.
	pricing := got["pricing"].(map[string]any)
	assert.Equal(t, "99999.5", pricing["salesPrice"])
	// Absent optionals stay off the wire.
	assert.NotContains(t, got, "doors")
	assert.NotContains(t, got, "availableFrom")
}

func TestFingerprint_IgnoresPrice(t *testing.T) {
	a, err := FromRow(cleanedRow(), 2)
	require.NoError(t, err)

	row := cleanedRow()
	row["pricing_salesPrice"] = "80000"
	b, err := FromRow(row, 2)
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	row = cleanedRow()
	row["color"] = "Biały"
	c, err := FromRow(row, 2)
	require.NoError(t, err)

	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
