package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/stripe"
)

const (
	ActionCreateSetupIntent = "create-setup-intent"
	ActionAuthorizeHold     = "authorize-hold"
	ActionCapturePayment    = "capture-payment"
	ActionCancelHold        = "cancel-hold"

	// DefaultHoldMXN es la retención por visita técnica.
	DefaultHoldMXN int64 = 350
)

// PaymentError es un error de pago que se devuelve al cliente con el detalle de Stripe.
type PaymentError struct {
	Message     string
	StripeError string
}

func (e *PaymentError) Error() string { return e.Message }

type PaymentsUseCase struct {
	Gateway  PaymentGateway
	Profiles entity.ProfileRepositoryInterface
	Metrics  Metrics
	Logger   *zap.Logger
}

func NewPaymentsUseCase(gateway PaymentGateway, profiles entity.ProfileRepositoryInterface, metrics Metrics, logger *zap.Logger) *PaymentsUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentsUseCase{Gateway: gateway, Profiles: profiles, Metrics: metrics, Logger: logger}
}

func (uc *PaymentsUseCase) Execute(ctx context.Context, input PaymentInput) (*PaymentOutput, error) {
	if input.User.ID == "" {
		return nil, domainErr(CodeUnauthorized, "No autorizado. Token de autenticación requerido.")
	}
	if uc.Gateway == nil {
		return nil, technicalErr(CodeNotConfig, "Stripe no está configurado. Verifica STRIPE_SECRET_KEY.", nil)
	}

	log := uc.Logger.With(zap.String("action", input.Action), zap.String("user_id", input.User.ID))
	log.Info("🔧 Acción de pago")

	switch input.Action {
	case ActionCreateSetupIntent:
		return uc.createSetupIntent(ctx, input, log)
	case ActionAuthorizeHold:
		return uc.authorizeHold(ctx, input, log)
	case ActionCapturePayment:
		if err := uc.requireOwnIntent(ctx, input, "Error al capturar el pago", log); err != nil {
			return nil, err
		}
		res, err := uc.Gateway.Capture(ctx, input.PaymentIntentID)
		if err != nil {
			return nil, uc.gatewayFailure(err, "Error al capturar el pago", log)
		}
		log.Info("✅ Pago capturado", zap.String("payment_intent", res.ID))
		return &PaymentOutput{Success: true, PaymentIntentID: res.ID, Status: res.Status}, nil
	case ActionCancelHold:
		if err := uc.requireOwnIntent(ctx, input, "Error al cancelar el hold", log); err != nil {
			return nil, err
		}
		res, err := uc.Gateway.Cancel(ctx, input.PaymentIntentID)
		if err != nil {
			return nil, uc.gatewayFailure(err, "Error al cancelar el hold", log)
		}
		log.Info("✅ Hold cancelado", zap.String("payment_intent", res.ID))
		return &PaymentOutput{Success: true, PaymentIntentID: res.ID, Status: res.Status}, nil
	default:
		return nil, domainErr(CodeUnknownAction, "Acción no reconocida: "+input.Action+
			". Acciones válidas: create-setup-intent, authorize-hold, capture-payment, cancel-hold")
	}
}

func (uc *PaymentsUseCase) createSetupIntent(ctx context.Context, input PaymentInput, log *zap.Logger) (*PaymentOutput, error) {
	customerID, err := uc.findOrCreateCustomer(ctx, input.User, log)
	if err != nil {
		return nil, uc.gatewayFailure(err, "Error al crear SetupIntent", log)
	}

	secret, err := uc.Gateway.CreateSetupIntent(ctx, customerID)
	if err != nil {
		return nil, uc.gatewayFailure(err, "Error al crear SetupIntent", log)
	}

	log.Info("✅ SetupIntent creado", zap.String("customer_id", customerID))
	return &PaymentOutput{Success: true, ClientSecret: secret, CustomerID: customerID}, nil
}

func (uc *PaymentsUseCase) authorizeHold(ctx context.Context, input PaymentInput, log *zap.Logger) (*PaymentOutput, error) {
	if strings.TrimSpace(input.PaymentMethodID) == "" {
		return nil, domainErr(CodeValidation, "paymentMethodId es requerido")
	}
	amount := input.Amount
	if amount <= 0 {
		amount = DefaultHoldMXN
	}

	customerID, err := uc.findOrCreateCustomer(ctx, input.User, log)
	if err != nil {
		return nil, uc.holdFailure(err, log)
	}

	res, err := uc.Gateway.AuthorizeHold(ctx, stripe.HoldInput{
		CustomerID:      customerID,
		PaymentMethodID: input.PaymentMethodID,
		AmountMXN:       amount,
		UserID:          input.User.ID,
		UserEmail:       input.User.Email,
	})
	if err != nil {
		return nil, uc.holdFailure(err, log)
	}

	log.Info("✅ PaymentIntent creado (retención)", zap.String("payment_intent", res.ID), zap.Int64("amount_mxn", amount))
	return &PaymentOutput{Success: true, PaymentIntentID: res.ID, Status: res.Status, Amount: res.Amount / 100}, nil
}

// requireOwnIntent solo deja capturar o cancelar retenciones creadas por el mismo usuario.
func (uc *PaymentsUseCase) requireOwnIntent(ctx context.Context, input PaymentInput, failMsg string, log *zap.Logger) error {
	if strings.TrimSpace(input.PaymentIntentID) == "" {
		return domainErr(CodeValidation, "paymentIntentId es requerido")
	}

	intent, err := uc.Gateway.GetIntent(ctx, input.PaymentIntentID)
	if err != nil {
		return uc.gatewayFailure(err, failMsg, log)
	}
	if intent.UserID != input.User.ID {
		log.Warn("⚠️ PaymentIntent de otro usuario", zap.String("payment_intent", input.PaymentIntentID),
			zap.String("owner_id", intent.UserID))
		return domainErr(CodeForbidden, "No tienes permiso para operar este pago.")
	}
	return nil
}

// findOrCreateCustomer reutiliza profiles.stripe_customer_id si sigue existiendo en Stripe;
// si no, crea uno nuevo y lo guarda (un fallo al guardar solo se registra).
func (uc *PaymentsUseCase) findOrCreateCustomer(ctx context.Context, user entity.AuthUser, log *zap.Logger) (string, error) {
	profile, err := uc.Profiles.FindByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, entity.ErrProfileNotFound) {
		return "", err
	}

	if profile != nil && profile.StripeCustomerID != "" {
		exists, err := uc.Gateway.CustomerExists(ctx, profile.StripeCustomerID)
		if err == nil && exists {
			return profile.StripeCustomerID, nil
		}
		log.Warn("⚠️ Customer ID en BD no existe en Stripe, creando nuevo", zap.String("customer_id", profile.StripeCustomerID))
	}

	customerID, err := uc.Gateway.CreateCustomer(ctx, user.ID, user.Email)
	if err != nil {
		return "", err
	}

	if profile != nil {
		if err := uc.Profiles.UpdateStripeCustomerID(ctx, user.ID, customerID); err != nil {
			log.Warn("⚠️ No se pudo actualizar stripe_customer_id en profiles", zap.Error(err))
		}
	}
	return customerID, nil
}

func (uc *PaymentsUseCase) holdFailure(err error, log *zap.Logger) error {
	log.Error("❌ Error autorizando hold", zap.Error(err))

	var ge *stripe.GatewayError
	if errors.As(err, &ge) {
		msg := "Error al autorizar el pago"
		switch {
		case ge.IsCardError():
			msg = ge.Message
			if msg == "" {
				msg = "Tu tarjeta fue rechazada. Verifica los datos e intenta con otra tarjeta."
			}
		case ge.IsInvalidRequest():
			msg = "Error en la solicitud de pago. Verifica que tu tarjeta tenga fondos suficientes."
		}
		return &PaymentError{Message: msg, StripeError: ge.Message}
	}

	uc.Metrics.IntegrationError("stripe")
	return &PaymentError{Message: "Error al autorizar el pago", StripeError: err.Error()}
}

func (uc *PaymentsUseCase) gatewayFailure(err error, msg string, log *zap.Logger) error {
	uc.Metrics.IntegrationError("stripe")
	log.Error("❌ "+msg, zap.Error(err))

	var ge *stripe.GatewayError
	if errors.As(err, &ge) && ge.Message != "" {
		msg = ge.Message
	}
	return technicalErr(CodeIntegration, msg, err)
}
