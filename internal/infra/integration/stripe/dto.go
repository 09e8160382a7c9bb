package stripe

// HoldInput describe una retención (captura manual) sobre una tarjeta guardada.
type HoldInput struct {
	CustomerID      string
	PaymentMethodID string
	AmountMXN       int64
	UserID          string
	UserEmail       string
}

// IntentResult es el resumen de un PaymentIntent que se devuelve al cliente.
type IntentResult struct {
	ID     string
	Status string
	Amount int64 // centavos
	UserID string // metadata.user_id de la retención
}

// GatewayError conserva el tipo de error de Stripe para que el caso de uso decida el mensaje.
type GatewayError struct {
	Type    string // card_error, invalid_request_error, ...
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return "stripe: " + e.Type + ": " + e.Message
}

func (e *GatewayError) IsCardError() bool {
	return e.Type == "card_error"
}

func (e *GatewayError) IsInvalidRequest() bool {
	return e.Type == "invalid_request_error"
}

// WebhookEvent es la parte de un evento de Stripe que procesa el servicio.
type WebhookEvent struct {
	ID   string
	Type string
	// Checkout
	ClientReferenceID string
	Metadata          map[string]string
	// Subscription
	CustomerID         string
	SubscriptionStatus string
}
