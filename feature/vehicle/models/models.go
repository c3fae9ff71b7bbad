package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateFormat is the wire format for calendar dates.
const dateFormat = "2006-01-02"

// VehicleRecord is one normalized feed entry. Records are immutable once
// produced by the loader and live for a single synchronization run.
type VehicleRecord struct {
	// VIN is the stable partner-side identifier (externalId).
	VIN string

	ConfigurationNumber string
	Category            string
	Make                string
	Model               string
	ManufactureYear     int
	Mileage             int
	EngineCode          string
	CubicCapacity       decimal.Decimal
	Acceleration        decimal.Decimal
	FuelType            string
	Power               int
	TransmissionType    string
	DriveWheels         string
	VehicleType         string
	CarClass            string
	Doors               *int
	Color               string
	ListPrice           decimal.Decimal
	SalesPrice          decimal.Decimal
	AvailableFrom       *time.Time
	FirstRegistrationDate *time.Time
	Description         string
	RegistrationNumber  string
	LocationID          string

	// SourceLine is the 1-based CSV line for error attribution.
	SourceLine int
}

type apiPricing struct {
	ListPrice  string `json:"listPrice"`
	SalesPrice string `json:"salesPrice"`
}

type apiPayload struct {
	ConfigurationNumber   string          `json:"configurationNumber,omitempty"`
	VIN                   string          `json:"vin"`
	Category              string          `json:"category"`
	Make                  string          `json:"make"`
	Model                 string          `json:"model"`
	ManufactureYear       int             `json:"manufactureYear"`
	Mileage               int             `json:"mileage"`
	EngineCode            string          `json:"engineCode,omitempty"`
	CubicCapacity         decimal.Decimal `json:"cubicCapacity"`
	Acceleration          decimal.Decimal `json:"acceleration"`
	FuelType              string          `json:"fuelType"`
	Power                 int             `json:"power"`
	TransmissionType      string          `json:"transmissionType"`
	DriveWheels           string          `json:"driveWheels"`
	Type                  string          `json:"type"`
	CarClass              string          `json:"carClass,omitempty"`
	Doors                 *int            `json:"doors,omitempty"`
	Color                 string          `json:"color"`
	AvailableFrom         string          `json:"availableFrom,omitempty"`
	FirstRegistrationDate string          `json:"firstRegistrationDate,omitempty"`
	Description           string          `json:"description,omitempty"`
	Pricing               apiPricing      `json:"pricing"`
	RegistrationNumber    string          `json:"registrationNumber,omitempty"`
	LocationID            string          `json:"locationId,omitempty"`
}

func (r *VehicleRecord) payload() apiPayload {
	return apiPayload{
		ConfigurationNumber: r.ConfigurationNumber,
		VIN:                 r.VIN,
		Category:            r.Category,
		Make:                r.Make,
		Model:               r.Model,
		ManufactureYear:     r.ManufactureYear,
		Mileage:             r.Mileage,
		EngineCode:          r.EngineCode,
		CubicCapacity:       r.CubicCapacity,
		Acceleration:        r.Acceleration,
		FuelType:            r.FuelType,
		Power:               r.Power,
		TransmissionType:    r.TransmissionType,
		DriveWheels:         r.DriveWheels,
		Type:                r.VehicleType,
		CarClass:            r.CarClass,
		Doors:               r.Doors,
		Color:               r.Color,
		AvailableFrom:       formatDate(r.AvailableFrom),
		FirstRegistrationDate: formatDate(r.FirstRegistrationDate),
		Description:         r.Description,
		Pricing: apiPricing{
			ListPrice:  r.ListPrice.String(),
			SalesPrice: r.SalesPrice.String(),
		},
		RegistrationNumber: r.RegistrationNumber,
		LocationID:         r.LocationID,
	}
}

// APIPayload serializes the record to the shape the platform API expects.
func (r *VehicleRecord) APIPayload() any {
	return r.payload()
}

// Fingerprint returns a stable digest of all non-price fields. The pricing
// block is zeroed so price changes and field changes stay independent
// operations.
func (r *VehicleRecord) Fingerprint() string {
	p := r.payload()
	p.Pricing = apiPricing{}
	data, err := json.Marshal(p)
	if err != nil {
		// Payload is a plain struct; Marshal cannot realistically fail.
		data = []byte(r.VIN)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateFormat)
}

// FromRow builds a record from a cleaned, header-keyed CSV row.
// It collects every missing required field into a single error so the
// operator sees the full problem at once.
func FromRow(row map[string]string, line int) (*VehicleRecord, error) {
	var missing []string
	require := func(key string) string {
		v := row[key]
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	var parseErr error
	fail := func(err error) {
		if parseErr == nil {
			parseErr = err
		}
	}

	rec := &VehicleRecord{
		VIN:                 require("vin"),
		ConfigurationNumber: row["configurationNumber"],
		Category:            require("category"),
		Make:                require("make"),
		Model:               require("model"),
		EngineCode:          row["engineCode"],
		FuelType:            require("fuelType"),
		TransmissionType:    require("transmissionType"),
		DriveWheels:         require("driveWheels"),
		VehicleType:         require("type"),
		CarClass:            row["carClass"],
		Color:               require("color"),
		Description:         row["description"],
		RegistrationNumber:  row["registrationNumber"],
		LocationID:          row["locationId"],
		SourceLine:          line,
	}

	if v, err := parseInt(require("manufactureYear"), "manufactureYear"); err != nil {
		fail(err)
	} else {
		rec.ManufactureYear = v
	}
	if v, err := parseInt(require("mileage"), "mileage"); err != nil {
		fail(err)
	} else {
		rec.Mileage = v
	}
	if v, err := parseInt(require("power"), "power"); err != nil {
		fail(err)
	} else {
		rec.Power = v
	}
	if v, err := parseDecimal(require("cubicCapacity"), "cubicCapacity"); err != nil {
		fail(err)
	} else {
		rec.CubicCapacity = v
	}
	if raw := row["acceleration"]; raw != "" {
		if v, err := parseDecimal(raw, "acceleration"); err != nil {
			fail(err)
		} else {
			rec.Acceleration = v
		}
	}
	if raw := row["doors"]; raw != "" && raw != "0" {
		if v, err := parseInt(raw, "doors"); err != nil {
			fail(err)
		} else {
			rec.Doors = &v
		}
	}
	if v, err := parseDecimal(require("pricing_listPrice"), "pricing_listPrice"); err != nil {
		fail(err)
	} else {
		rec.ListPrice = v
	}
	if v, err := parseDecimal(require("pricing_salesPrice"), "pricing_salesPrice"); err != nil {
		fail(err)
	} else {
		rec.SalesPrice = v
	}
	if v, err := parseDate(row["availableFrom"]); err != nil {
		fail(err)
	} else {
		rec.AvailableFrom = v
	}
	if v, err := parseDate(row["firstRegistrationDate"]); err != nil {
		fail(err)
	} else {
		rec.FirstRegistrationDate = v
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		missing = dedupeStrings(missing)
		return nil, fmt.Errorf("missing required CSV fields: %s", strings.Join(missing, ", "))
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return rec, nil
}

func parseInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil // reported via the missing-fields path
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %q: %s", field, raw)
	}
	return int(d.Round(0).IntPart()), nil
}

func parseDecimal(raw, field string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid numeric value for %q: %s", field, raw)
	}
	return d, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateFormat, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date value: %s", raw)
	}
	return &t, nil
}

func dedupeStrings(in []string) []string {
	out := in[:0]
	var prev string
	for i, s := range in {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}
