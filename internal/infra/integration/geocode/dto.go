package geocode

// Result es la respuesta normalizada de cualquier proveedor.
type Result struct {
	City        string `json:"city"`
	SubCityZone string `json:"sub_city_zone"`
	PostalCode  string `json:"postal_code"`
	Address     string `json:"address"`
}

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	FormattedAddress  string            `json:"formatted_address"`
	AddressComponents []googleComponent `json:"address_components"`
}

type googleComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type nominatimResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}
