// Package imports parses staff-uploaded listing CSV files and commits them
// as projects with units.
package imports

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"realia_backend/platform/sanitize"
)

// Project-level columns, read from the first data row.
const (
	colName              = "proyecto_nombre"
	colAddress           = "proyecto_direccion"
	colNeighborhood      = "proyecto_barrio"
	colCity              = "proyecto_ciudad"
	colDescription       = "proyecto_descripcion"
	colTotalFloors       = "proyecto_pisos_total"
	colTotalUnits        = "proyecto_unidades_total"
	colConstructionStart = "proyecto_inicio_obra"
	colEstimatedDelivery = "proyecto_entrega_estimada"
	colDeliveryStatus    = "proyecto_estado_obra"
	colPaymentInfo       = "proyecto_formas_pago"
	colAmenities         = "proyecto_amenities"
)

// Per-unit columns, read from every row with a non-empty identifier.
const (
	colUnit     = "unidad"
	colFloor    = "piso"
	colBedrooms = "ambientes"
	colArea     = "m2"
	colPrice    = "precio_usd"
	colStatus   = "estado"
)

var unitStatusMap = map[string]string{
	"disponible": "available",
	"reservada":  "reserved",
	"reservado":  "reserved",
	"vendida":    "sold",
	"vendido":    "sold",
}

var deliveryStatusMap = map[string]string{
	"pozo":            "en_pozo",
	"en_pozo":         "en_pozo",
	"construccion":    "en_construccion",
	"en_construccion": "en_construccion",
	"en_obra":         "en_construccion",
	"terminado":       "terminado",
	"terminada":       "terminado",
	"entregado":       "terminado",
}

var dateLayouts = []string{"2006-01-02", "2006-01", "01/2006", "2006"}

// ParsedUnit is one valid unit row.
type ParsedUnit struct {
	Identifier string
	Floor      *int
	Bedrooms   *int
	AreaM2     *float64
	PriceUSD   *float64
	Status     string
}

// ParsedImport is the result of parsing an import file, held as pending
// state until the sender confirms or discards it.
type ParsedImport struct {
	Name              string
	Slug              string
	Address           *string
	Neighborhood      *string
	City              string
	Description       *string
	Amenities         []string
	TotalFloors       *int
	TotalUnits        *int
	ConstructionStart *time.Time
	EstimatedDelivery *time.Time
	DeliveryStatus    string
	PaymentInfo       *string
	Units             []ParsedUnit
	Warnings          []string
}

// ErrUnusable is returned when the file yields no project name or no valid
// units; Parse wraps it with the collected row errors.
var ErrUnusable = errors.New("imports: file not usable")

// Parse reads a listing CSV eagerly. Individual bad unit rows become
// warnings; the whole file is rejected only when no usable project name or
// zero valid units remain.
func Parse(data []byte) (*ParsedImport, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: empty or unreadable file", ErrUnusable)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[sanitize.Fold(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	get := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	parsed := &ParsedImport{DeliveryStatus: "en_pozo"}
	rowNum := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("fila %d: ilegible (%v)", rowNum+1, err))
			rowNum++
			continue
		}
		rowNum++

		if parsed.Name == "" {
			parseProjectFields(parsed, row, get)
		}

		identifier := get(row, colUnit)
		if identifier == "" {
			continue
		}

		unit, warn := parseUnitRow(identifier, row, get)
		if warn != "" {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("fila %d: %s", rowNum, warn))
			continue
		}
		parsed.Units = append(parsed.Units, unit)
	}

	if parsed.Name == "" {
		return nil, fmt.Errorf("%w: falta %s", ErrUnusable, colName)
	}
	if len(parsed.Units) == 0 {
		return nil, fmt.Errorf("%w: sin unidades válidas", ErrUnusable)
	}

	parsed.Slug = sanitize.Slug(parsed.Name)
	if parsed.TotalUnits == nil {
		n := len(parsed.Units)
		parsed.TotalUnits = &n
	}
	return parsed, nil
}

func parseProjectFields(parsed *ParsedImport, row []string, get func([]string, string) string) {
	parsed.Name = get(row, colName)
	if parsed.Name == "" {
		return
	}

	parsed.Address = optional(get(row, colAddress))
	parsed.Neighborhood = optional(get(row, colNeighborhood))
	parsed.City = get(row, colCity)
	parsed.Description = optional(get(row, colDescription))
	parsed.PaymentInfo = optional(get(row, colPaymentInfo))

	if v := get(row, colTotalFloors); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			parsed.TotalFloors = &n
		} else {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("%s inválido: %q", colTotalFloors, v))
		}
	}
	if v := get(row, colTotalUnits); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			parsed.TotalUnits = &n
		} else {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("%s inválido: %q", colTotalUnits, v))
		}
	}
	if v := get(row, colConstructionStart); v != "" {
		if t, ok := parseDate(v); ok {
			parsed.ConstructionStart = &t
		} else {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("%s inválido: %q", colConstructionStart, v))
		}
	}
	if v := get(row, colEstimatedDelivery); v != "" {
		if t, ok := parseDate(v); ok {
			parsed.EstimatedDelivery = &t
		} else {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("%s inválido: %q", colEstimatedDelivery, v))
		}
	}
	if v := get(row, colDeliveryStatus); v != "" {
		if mapped, ok := deliveryStatusMap[sanitize.Fold(v)]; ok {
			parsed.DeliveryStatus = mapped
		} else {
			parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("%s desconocido: %q", colDeliveryStatus, v))
		}
	}
	if v := get(row, colAmenities); v != "" {
		for _, a := range strings.Split(v, "|") {
			if a = strings.TrimSpace(a); a != "" {
				parsed.Amenities = append(parsed.Amenities, a)
			}
		}
	}
}

func parseUnitRow(identifier string, row []string, get func([]string, string) string) (ParsedUnit, string) {
	unit := ParsedUnit{
		Identifier: strings.ToUpper(identifier),
		Status:     "available",
	}

	if v := get(row, colFloor); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			unit.Floor = &n
		}
	}
	if v := get(row, colBedrooms); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			unit.Bedrooms = &n
		}
	}
	if v := get(row, colArea); v != "" {
		if f, err := parseNumber(v); err == nil {
			unit.AreaM2 = &f
		}
	}
	if v := get(row, colPrice); v != "" {
		if f, err := parseNumber(v); err == nil && f > 0 {
			unit.PriceUSD = &f
		}
	}
	if v := get(row, colStatus); v != "" {
		if mapped, ok := unitStatusMap[sanitize.Fold(v)]; ok {
			unit.Status = mapped
		}
	}

	// A row with neither floor nor price carries too little to sell from.
	if unit.Floor == nil && unit.PriceUSD == nil {
		return ParsedUnit{}, fmt.Sprintf("unidad %s sin piso ni precio, descartada", unit.Identifier)
	}
	return unit, ""
}

// parseNumber accepts plain ("50000"), dot-thousands ("50.000") and
// comma-decimal ("1.500,50" / "89,5") forms.
func parseNumber(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	} else if i := strings.LastIndex(v, "."); i >= 0 && len(v)-i-1 == 3 && len(v) > 4 {
		v = strings.ReplaceAll(v, ".", "")
	}
	return strconv.ParseFloat(v, 64)
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i > 0 {
		line = data[:i]
	}
	if !bytes.ContainsRune(line, ',') && bytes.ContainsRune(line, ';') {
		return ';'
	}
	return ','
}
