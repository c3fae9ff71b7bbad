package vehicle

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultEngineCode stands in when the partner leaves the column empty;
// the platform rejects a missing engine code.
const defaultEngineCode = "-"

var categoryMap = map[string]string{
	"osobowy":   "PASSENGER",
	"dostawczy": "DELIVERY",
}

var fuelMap = map[string]string{
	"etylina":                          "PETROL",
	"benzyna":                          "PETROL",
	"olejnapedowy":                     "DIESEL",
	"diesel":                           "DIESEL",
	"hybrydaetylnanapedelektryczny":    "HYBRID",
	"hybrydaetylinanapedelektr":        "HYBRID",
	"hybrydapluginelektric":            "HYBRID",
	"hybrydaetylnaplusnapedelektryczny": "HYBRID",
	"hybrydowy":                        "HYBRID",
	"lpg":                              "LPG",
	"elektryczny":                      "ELECTRIC",
}

var transmissionMap = map[string]string{
	"automatycznahydraulicznaklasyczna": "AUTOMATIC",
	"automatyczna":                      "AUTOMATIC",
	"automat":                           "AUTOMATIC",
	"manualna":                          "MANUAL",
}

var driveWheelsMap = map[string]string{
	"naprzedniekola":       "FRONT",
	"naprzedniekoa":        "FRONT",
	"naprzod":              "FRONT",
	"naautonomiczneprzod":  "FRONT",
	"natylniekola":         "REAR",
	"4x4":                  "FOUR",
	"4x4staly":             "FOUR",
	"4x4stay":              "FOUR",
	"4x4automatyczny":      "FOUR",
	"4wd":                  "FOUR",
}

var vehicleTypeMap = map[string]string{
	"suv":          "SUV",
	"kombi":        "ESTATE",
	"hatchback":    "HATCHBACK",
	"van":          "VAN",
	"sedan":        "SALOON",
	"limuzyna":     "SALOON",
	"autamiejskie": "HATCHBACK",
	"kompakt":      "HATCHBACK",
}

var carClassMap = map[string]string{
	"business":   "BUSINESS",
	"family":     "FAMILY",
	"sweet":      "SWEET",
	"adrenaline": "ADRENALINE",
}

// Normalizer cleans partner-specific quirks out of raw CSV rows before
// validation. The zero value works; Locations is optional.
type Normalizer struct {
	// Locations maps partner branch codes to platform location ids.
	Locations map[string]string
}

// LoadLocationMap reads a partner-code -> location-id JSON object.
func LoadLocationMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read location map: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse location map %s: %w", path, err)
	}
	return m, nil
}

// CleanRow returns a copy of row with values trimmed, locale quirks fixed
// and enum labels translated to the platform vocabulary.
func (n *Normalizer) CleanRow(row map[string]string) map[string]string {
	cleaned := make(map[string]string, len(row))
	for key, value := range row {
		cleaned[key] = prepareValue(value)
	}

	cleaned["category"] = mapEnum(cleaned["category"], categoryMap, true)
	cleaned["fuelType"] = mapEnum(cleaned["fuelType"], fuelMap, true)
	cleaned["transmissionType"] = mapEnum(cleaned["transmissionType"], transmissionMap, true)
	cleaned["driveWheels"] = mapEnum(cleaned["driveWheels"], driveWheelsMap, true)
	cleaned["type"] = mapEnum(cleaned["type"], vehicleTypeMap, true)
	cleaned["carClass"] = mapEnum(cleaned["carClass"], carClassMap, false)

	if cleaned["engineCode"] == "" {
		cleaned["engineCode"] = defaultEngineCode
	}

	cleaned["manufactureYear"] = normalizeInteger(cleaned["manufactureYear"], false)
	cleaned["mileage"] = normalizeInteger(cleaned["mileage"], false)
	cleaned["power"] = normalizeInteger(cleaned["power"], false)
	cleaned["doors"] = normalizeInteger(cleaned["doors"], true)

	cleaned["cubicCapacity"] = normalizeDecimal(cleaned["cubicCapacity"])
	cleaned["acceleration"] = normalizeDecimal(cleaned["acceleration"])
	cleaned["pricing_listPrice"] = normalizeDecimal(cleaned["pricing_listPrice"])
	cleaned["pricing_salesPrice"] = normalizeDecimal(cleaned["pricing_salesPrice"])

	cleaned["availableFrom"] = normalizeDate(cleaned["availableFrom"])
	cleaned["firstRegistrationDate"] = normalizeDate(cleaned["firstRegistrationDate"])

	if cleaned["description"] != "" {
		cleaned["description"] = normalizeDescription(cleaned["description"])
	}

	cleaned["locationId"] = n.mapLocation(cleaned["locationId"])

	return cleaned
}

func (n *Normalizer) mapLocation(value string) string {
	if value == "" {
		return ""
	}
	return n.Locations[strings.TrimSpace(value)]
}

// prepareValue trims whitespace and drops the literal "NULL" the partner
// export uses for missing values.
func prepareValue(value string) string {
	v := strings.TrimSpace(value)
	if strings.EqualFold(v, "NULL") {
		return ""
	}
	return v
}

// normalizeInteger canonicalizes an integer-ish value. Zero is treated as
// missing unless allowZero (doors legitimately report zero for "unknown",
// which the model maps to absent).
func normalizeInteger(raw string, allowZero bool) string {
	empty := ""
	if allowZero {
		empty = "0"
	}
	if raw == "" {
		return empty
	}
	v := prepareNumeric(raw)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return empty
	}
	if !allowZero && d.IsZero() {
		return empty
	}
	return d.Round(0).String()
}

func normalizeDecimal(raw string) string {
	if raw == "" {
		return ""
	}
	v := prepareNumeric(raw)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return ""
	}
	return d.String()
}

// prepareNumeric strips thousands spaces and converts locale decimal
// commas to dots.
func prepareNumeric(raw string) string {
	v := strings.ReplaceAll(raw, " ", "")
	return strings.ReplaceAll(v, ",", ".")
}

// normalizeDate keeps the date part of "YYYY-MM-DD[ HH:MM:SS]" values.
func normalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	date, _, _ := strings.Cut(raw, " ")
	return date
}

var descriptionSeparator = regexp.MustCompile(`\s*\|\s*`)

// normalizeDescription splits pipe-concatenated description fragments and
// drops duplicates, preserving first-seen order.
func normalizeDescription(value string) string {
	parts := descriptionSeparator.Split(value, -1)
	seen := make(map[string]struct{})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	if len(out) == 0 {
		return strings.TrimSpace(value)
	}
	return strings.Join(out, "\n")
}

// mapEnum translates a partner label into the platform vocabulary. Unknown
// labels pass through upper-cased when passthrough is set; otherwise they
// collapse to empty (optional enums).
func mapEnum(value string, mapping map[string]string, passthrough bool) string {
	if value == "" {
		return ""
	}
	if mapped, ok := mapping[enumKey(value)]; ok {
		return mapped
	}
	if passthrough {
		return strings.ToUpper(strings.TrimSpace(value))
	}
	return ""
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// enumKey folds a label to lowercase ASCII alphanumerics so accented and
// spaced variants hit the same map entry.
func enumKey(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, strings.ToLower(value))
	if err != nil {
		ascii = strings.ToLower(value)
	}
	return nonAlnum.ReplaceAllString(ascii, "")
}
