package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanRow_EnumTranslation(t *testing.T) {
	n := &Normalizer{}

	cleaned := n.CleanRow(map[string]string{
		"category":         " osobowy ",
		"fuelType":         "Olej napędowy",
		"transmissionType": "Automatyczna hydrauliczna (klasyczna)",
		"driveWheels":      "4x4 (stały)",
		"type":             "Kombi",
		"carClass":         "Business",
	})

	assert.Equal(t, "PASSENGER", cleaned["category"])
	assert.Equal(t, "DIESEL", cleaned["fuelType"])
	assert.Equal(t, "AUTOMATIC", cleaned["transmissionType"])
	assert.Equal(t, "FOUR", cleaned["driveWheels"])
	assert.Equal(t, "ESTATE", cleaned["type"])
	assert.Equal(t, "BUSINESS", cleaned["carClass"])
}

func TestCleanRow_UnknownEnums(t *testing.T) {
	n := &Normalizer{}

	cleaned := n.CleanRow(map[string]string{
		"fuelType": "wodór",
		"carClass": "mystery",
	})

	// Required enums pass through upper-cased for the API to reject with a
	// useful message; optional ones collapse to empty.
	assert.Equal(t, "WODÓR", cleaned["fuelType"])
	assert.Equal(t, "", cleaned["carClass"])
}

func TestCleanRow_NullAndWhitespace(t *testing.T) {
	n := &Normalizer{}

	cleaned := n.CleanRow(map[string]string{
		"make":  "NULL",
		"model": "  Corolla  ",
		"color": "null",
	})

	assert.Equal(t, "", cleaned["make"])
	assert.Equal(t, "Corolla", cleaned["model"])
	assert.Equal(t, "", cleaned["color"])
}

func TestCleanRow_Numerics(t *testing.T) {
	n := &Normalizer{}

	cleaned := n.CleanRow(map[string]string{
		"mileage":            "12 500",
		"manufactureYear":    "2021,0",
		"power":              "0",
		"doors":              "0",
		"cubicCapacity":      "1 998,5",
		"acceleration":       "8,9",
		"pricing_listPrice":  "120 000,00",
		"pricing_salesPrice": "not-a-number",
	})

	assert.Equal(t, "12500", cleaned["mileage"])
	assert.Equal(t, "2021", cleaned["manufactureYear"])
	// Zero power is a placeholder, not data.
	assert.Equal(t, "", cleaned["power"])
	// Zero doors survives; the model treats it as absent.
	assert.Equal(t, "0", cleaned["doors"])
	assert.Equal(t, "1998.5", cleaned["cubicCapacity"])
	assert.Equal(t, "8.9", cleaned["acceleration"])
	assert.Equal(t, "120000", cleaned["pricing_listPrice"])
	assert.Equal(t, "", cleaned["pricing_salesPrice"])
}

func TestCleanRow_Dates(t *testing.T) {
	n := &Normalizer{}

	cleaned := n.CleanRow(map[string]string{
		"availableFrom":         "2026-09-01 00:00:00",
		"firstRegistrationDate": "2021-03-15",
	})

	assert.Equal(t, "2026-09-01", cleaned["availableFrom"])
	assert.Equal(t, "2021-03-15", cleaned["firstRegistrationDate"])
}

func TestCleanRow_EngineCodeDefault(t *testing.T) {
	n := &Normalizer{}

	cleaned := n.CleanRow(map[string]string{"engineCode": ""})
	assert.Equal(t, "-", cleaned["engineCode"])

	cleaned = n.CleanRow(map[string]string{"engineCode": "2ZR-FXE"})
	assert.Equal(t, "2ZR-FXE", cleaned["engineCode"])
}

func TestCleanRow_DescriptionDedupe(t *testing.T) {
	n := &Normalizer{}

	cleaned := n.CleanRow(map[string]string{
		"description": "Klimatyzacja | ABS | klimatyzacja | Kamera cofania",
	})

	assert.Equal(t, "Klimatyzacja\nABS\nKamera cofania", cleaned["description"])
}

func TestCleanRow_LocationMapping(t *testing.T) {
	n := &Normalizer{Locations: map[string]string{"WAW01": "loc-42"}}

	cleaned := n.CleanRow(map[string]string{"locationId": "WAW01"})
	assert.Equal(t, "loc-42", cleaned["locationId"])

	cleaned = n.CleanRow(map[string]string{"locationId": "UNKNOWN"})
	assert.Equal(t, "", cleaned["locationId"])
}

func TestEnumKey_FoldsAccentsAndPunctuation(t *testing.T) {
	assert.Equal(t, "olejnapedowy", enumKey("Olej napędowy"))
	// "ł" has no combining-mark decomposition, it is dropped outright.
	assert.Equal(t, "4x4stay", enumKey("4x4 (stały)"))
	assert.Equal(t, "naprzedniekoa", enumKey("Na przednie koła"))
}
