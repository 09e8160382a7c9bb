package geocode

import (
	"strings"
)

var cityNormalizations = map[string]string{
	"Mexico City":      "Ciudad de México",
	"Ciudad de Mexico": "Ciudad de México",
	"CDMX":             "Ciudad de México",
	"Ciudad de México": "Ciudad de México",
	"Guadalajara":      "Guadalajara",
	"Monterrey":        "Monterrey",
}

// Alcaldías de la CDMX, en el orden en que se buscan dentro de la dirección.
var cdmxZones = []string{
	"Álvaro Obregón", "Azcapotzalco", "Benito Juárez", "Coyoacán",
	"Cuajimalpa", "Cuauhtémoc", "Gustavo A. Madero", "Iztacalco",
	"Iztapalapa", "Magdalena Contreras", "Miguel Hidalgo", "Milpa Alta",
	"Tláhuac", "Tlalpan", "Venustiano Carranza", "Xochimilco",
}

func normalizeCity(city string) string {
	city = strings.TrimSpace(city)
	if n, ok := cityNormalizations[city]; ok {
		return n
	}
	return city
}

func normalizeZone(zone string) string {
	return strings.TrimSpace(zone)
}

// zoneFromAddress extrae la alcaldía de una dirección formateada de la CDMX.
func zoneFromAddress(address string) string {
	for _, zone := range cdmxZones {
		if strings.Contains(address, zone) {
			return zone
		}
	}
	return ""
}
