package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sumeeapp/sumee-api/internal/config"
	"github.com/sumeeapp/sumee-api/internal/infra/auth"
	"github.com/sumeeapp/sumee-api/internal/infra/database"
	"github.com/sumeeapp/sumee-api/internal/infra/http/handlers"
	"github.com/sumeeapp/sumee-api/internal/infra/http/middleware"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/gemini"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/geocode"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/stripe"
	"github.com/sumeeapp/sumee-api/internal/infra/mail"
	"github.com/sumeeapp/sumee-api/internal/infra/queue"
	"github.com/sumeeapp/sumee-api/internal/infra/worker"
	"github.com/sumeeapp/sumee-api/internal/logger"
	"github.com/sumeeapp/sumee-api/internal/usecase"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("error conectando a la base de datos: %w", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.ApplySchema(ctx, db); err != nil {
			return err
		}
		log.Info("🗄️ Esquema aplicado")
	}

	// 1. Repositorios
	leadRepo := database.NewLeadRepository(db)
	profileRepo := database.NewProfileRepository(db)
	proRepo := database.NewProfessionalRepository(db)
	reviewRepo := database.NewLeadReviewRepository(db)
	eventRepo := database.NewLeadEventRepository(db)
	catalogRepo := database.NewServiceCatalogRepository(db)

	// 2. Cola: sin RABBITMQ_URL los eventos solo se registran
	var (
		producer usecase.QueueProducerInterface = &queue.LogProducer{Logger: log}
		rabbitMQ *queue.RabbitMQ
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		producer = queue.NewProducer(rabbitMQ.Ch)
		log.Info("🐇 RabbitMQ conectado")
	} else {
		log.Warn("⚠️ RABBITMQ_URL no configurado, eventos solo en log")
	}

	// 3. Integraciones opcionales. Se pasan interfaces nil cuando no están configuradas.
	metrics := middleware.DomainMetrics{}

	var llm usecase.LanguageModel
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("⚠️ Gemini no disponible", zap.Error(err))
		} else {
			llm = client
		}
	}

	// El webhook solo necesita el secreto de firma; los pagos requieren la llave secreta.
	stripeClient := stripe.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	var gateway usecase.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateway = stripeClient
	}

	geocoders := []usecase.Geocoder{}
	if cfg.GoogleMapsAPIKey != "" {
		geocoders = append(geocoders, geocode.NewGoogleClient(cfg.GoogleMapsAPIKey, ""))
	}
	geocoders = append(geocoders, geocode.NewNominatimClient(cfg.NominatimURL))

	verifier := auth.NewVerifier(cfg.SupabaseJWTSecret)
	sessions := auth.NewSessionResolver(verifier, cfg.SessionCookieName)
	authProvider := auth.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)

	// 4. Casos de uso
	createLeadUC := usecase.NewCreateLeadUseCase(leadRepo, eventRepo, producer, metrics, log)
	acceptLeadUC := usecase.NewAcceptLeadUseCase(leadRepo, profileRepo, eventRepo, producer, metrics, log)
	progressUC := usecase.NewLeadProgressUseCase(leadRepo, eventRepo, producer, metrics, log)
	reviewUC := usecase.NewReviewLeadUseCase(leadRepo, reviewRepo, proRepo, eventRepo, producer, metrics, log)
	detailsUC := usecase.NewLeadDetailsUseCase(leadRepo, reviewRepo, proRepo, profileRepo, log)
	deadlinesUC := usecase.NewContactDeadlinesUseCase(leadRepo, metrics, log)
	callbackUC := usecase.NewAuthCallbackUseCase(authProvider, profileRepo, proRepo, log)
	assistantUC := usecase.NewAIAssistantUseCase(proRepo, llm, metrics, log)
	searchUC := usecase.NewAISearchUseCase(catalogRepo, llm, metrics, log)
	geocodeUC := usecase.NewReverseGeocodeUseCase(profileRepo, metrics, log, geocoders...)
	paymentsUC := usecase.NewPaymentsUseCase(gateway, profileRepo, metrics, log)
	webhookUC := usecase.NewStripeWebhookUseCase(stripeClient, profileRepo, log)

	// 5. Handlers
	leadHandler := handlers.NewLeadHandler(createLeadUC, acceptLeadUC, progressUC, reviewUC, detailsUC, log)
	callbackHandler := handlers.NewAuthCallbackHandler(callbackUC, cfg.SiteURL, cfg.SessionCookieName, cfg.CodeVerifierCookie, log)
	aiHandler := handlers.NewAIHandler(assistantUC, searchUC, log)
	geocodeHandler := handlers.NewGeocodeHandler(geocodeUC, log)
	paymentHandler := handlers.NewPaymentHandler(paymentsUC, webhookUC, log)
	cronHandler := handlers.NewCronHandler(deadlinesUC, cfg.CronSecret, log)

	var health *handlers.HealthHandler
	if rabbitMQ != nil {
		health = handlers.NewHealthHandler(db, rabbitMQ.Conn, version)
	} else {
		health = handlers.NewHealthHandler(db, nil, version)
	}

	aiLimiter := handlers.NewRateLimiter(10, time.Minute) // 10 req/min por IP
	defer aiLimiter.Stop()

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
	}))

	r.Get("/health", health.Handle)
	r.Handle("/metrics", middleware.MetricsHandler())
	r.Post("/api/webhooks/stripe", paymentHandler.HandleStripeWebhook)
	r.Get("/api/cron/lead-deadlines", cronHandler.HandleLeadDeadlines)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(sessions))

		r.Get("/auth/callback", callbackHandler.Handle)

		r.Route("/api/leads", func(r chi.Router) {
			r.Post("/", leadHandler.HandleCreate)
			r.Post("/accept", leadHandler.HandleAccept)
			r.Post("/contact", leadHandler.HandleContact)
			r.Post("/appointment", leadHandler.HandleAppointment)
			r.Post("/complete", leadHandler.HandleComplete)
			r.Post("/review", leadHandler.HandleReview)
			r.Get("/details", leadHandler.HandleDetails)
		})

		r.Post("/api/ai-assistant", aiLimiter.Limit(aiHandler.HandleAssistant))
		r.Post("/api/ai-search", aiLimiter.Limit(aiHandler.HandleSearch))
		r.Post("/api/geocode/reverse", geocodeHandler.HandleReverse)
		r.Post("/api/payments", paymentHandler.HandlePayments)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Servidor y workers comparten ciclo de vida
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("🔥 Sumee API corriendo", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("🛑 Apagando servidor")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		worker.NewContactDeadlineWorker(deadlinesUC, cfg.DeadlineTick, log).Start(gctx)
		return nil
	})

	if rabbitMQ != nil {
		if cfg.Mail.Enabled() {
			sender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Pass, cfg.Mail.From, cfg.SiteURL)
			notifyUC := usecase.NewNotifyLeadEventUseCase(leadRepo, profileRepo, proRepo, sender, log)
			g.Go(func() error {
				return queue.NewWorker(rabbitMQ.Ch, notifyUC, log).Start(gctx, queue.QueueName)
			})
		} else {
			log.Warn("⚠️ MAIL_HOST no configurado, notificaciones deshabilitadas")
		}
	}

	return g.Wait()
}
