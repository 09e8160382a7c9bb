package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	stripego "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

type Client struct {
	api           *client.API
	webhookSecret string
}

func NewClient(secretKey, webhookSecret string) *Client {
	return &Client{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

// CustomerExists verifica que un customer guardado siga existiendo en Stripe.
func (c *Client) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	params := &stripego.CustomerParams{}
	params.Context = ctx
	cust, err := c.api.Customers.Get(customerID, params)
	if err != nil {
		var se *stripego.Error
		if errors.As(err, &se) && se.HTTPStatusCode == 404 {
			return false, nil
		}
		return false, mapError(err)
	}
	return !cust.Deleted, nil
}

func (c *Client) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	params := &stripego.CustomerParams{}
	params.Context = ctx
	if email != "" {
		params.Email = stripego.String(email)
	}
	params.AddMetadata("user_id", userID)
	params.AddMetadata("source", "sumeeapp")

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", mapError(err)
	}
	return cust.ID, nil
}

// CreateSetupIntent devuelve el client secret para guardar una tarjeta.
func (c *Client) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	params := &stripego.SetupIntentParams{
		Customer:           stripego.String(customerID),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	si, err := c.api.SetupIntents.New(params)
	if err != nil {
		return "", mapError(err)
	}
	return si.ClientSecret, nil
}

// AuthorizeHold crea un PaymentIntent con captura manual: retiene el monto sin cobrarlo.
func (c *Client) AuthorizeHold(ctx context.Context, in HoldInput) (*IntentResult, error) {
	params := &stripego.PaymentIntentParams{
		Amount:        stripego.Int64(in.AmountMXN * 100),
		Currency:      stripego.String(string(stripego.CurrencyMXN)),
		Customer:      stripego.String(in.CustomerID),
		PaymentMethod: stripego.String(in.PaymentMethodID),
		OffSession:    stripego.Bool(true),
		Confirm:       stripego.Bool(true),
		CaptureMethod: stripego.String(string(stripego.PaymentIntentCaptureMethodManual)),
	}
	params.Context = ctx
	params.AddMetadata("user_id", in.UserID)
	params.AddMetadata("user_email", in.UserEmail)
	params.AddMetadata("service_type", "visita_tecnica")
	params.AddMetadata("amount_mxn", strconv.FormatInt(in.AmountMXN, 10))

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, mapError(err)
	}
	return toResult(pi), nil
}

// GetIntent consulta un PaymentIntent para validar a quién pertenece antes de operarlo.
func (c *Client) GetIntent(ctx context.Context, paymentIntentID string) (*IntentResult, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	pi, err := c.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, mapError(err)
	}
	return toResult(pi), nil
}

func (c *Client) Capture(ctx context.Context, paymentIntentID string) (*IntentResult, error) {
	params := &stripego.PaymentIntentCaptureParams{}
	params.Context = ctx
	pi, err := c.api.PaymentIntents.Capture(paymentIntentID, params)
	if err != nil {
		return nil, mapError(err)
	}
	return toResult(pi), nil
}

func (c *Client) Cancel(ctx context.Context, paymentIntentID string) (*IntentResult, error) {
	params := &stripego.PaymentIntentCancelParams{}
	params.Context = ctx
	pi, err := c.api.PaymentIntents.Cancel(paymentIntentID, params)
	if err != nil {
		return nil, mapError(err)
	}
	return toResult(pi), nil
}

// ParseWebhook valida la firma Stripe-Signature y extrae los campos relevantes.
func (c *Client) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if c.webhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET no configurado")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("firma inválida: %w", err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}

	switch event.Type {
	case "checkout.session.completed":
		var cs stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("error decode checkout session: %w", err)
		}
		out.ClientReferenceID = cs.ClientReferenceID
		out.Metadata = cs.Metadata
		if cs.Customer != nil {
			out.CustomerID = cs.Customer.ID
		}
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripego.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("error decode subscription: %w", err)
		}
		out.SubscriptionStatus = string(sub.Status)
		out.Metadata = sub.Metadata
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}

	return out, nil
}

func toResult(pi *stripego.PaymentIntent) *IntentResult {
	return &IntentResult{ID: pi.ID, Status: string(pi.Status), Amount: pi.Amount, UserID: pi.Metadata["user_id"]}
}

func mapError(err error) error {
	var se *stripego.Error
	if errors.As(err, &se) {
		return &GatewayError{Type: string(se.Type), Code: string(se.Code), Message: se.Msg}
	}
	return err
}
