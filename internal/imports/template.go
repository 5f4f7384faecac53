package imports

import "strings"

// TemplateFilename is the name the blank import template is sent under.
const TemplateFilename = "plantilla_proyecto.csv"

// BlankTemplate returns the CSV template sent when a staff member asks how
// to load a new project. The header mirrors exactly what Parse reads; the
// sample row shows the expected value shapes.
func BlankTemplate() []byte {
	header := strings.Join([]string{
		colName, colAddress, colNeighborhood, colCity, colDescription,
		colTotalFloors, colTotalUnits, colConstructionStart,
		colEstimatedDelivery, colDeliveryStatus, colPaymentInfo, colAmenities,
		colUnit, colFloor, colBedrooms, colArea, colPrice, colStatus,
	}, ",")
	sample := strings.Join([]string{
		"Torre Ejemplo", "Av. Siempreviva 123", "Palermo", "Buenos Aires",
		"Torre de 10 pisos con amenities", "10", "40", "2025-03",
		"2027-06", "en_construccion", "30% anticipo | cuotas en pesos",
		"pileta|gimnasio|sum",
		"1A", "1", "2", "55", "95000", "disponible",
	}, ",")
	return []byte(header + "\n" + sample + "\n")
}

// IsImportFile reports whether an uploaded file should enter the CSV import
// flow instead of the document upload flow.
func IsImportFile(filename, mimeType string) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return true
	}
	switch strings.ToLower(mimeType) {
	case "text/csv", "application/csv", "text/comma-separated-values":
		return true
	}
	return false
}
