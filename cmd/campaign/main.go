package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/campaign"
	"github.com/sumeeapp/sumee-api/internal/config"
	"github.com/sumeeapp/sumee-api/internal/infra/mail"
	"github.com/sumeeapp/sumee-api/internal/logger"
)

const sendPause = 200 * time.Millisecond

var (
	rosterPath   string
	templatePath string
	outDir       string
	send         bool
	log          *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Campañas de correo para profesionales de Sumee App",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		var err error
		log, err = logger.New(os.Getenv("LOG_LEVEL"))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Genera los correos personalizados y la lista de envío",
	Long: `Personaliza la plantilla HTML para cada profesional del roster y guarda
un archivo por destinatario más lista-envio.csv.

Examples:
  campaign generate --roster roster.yaml --template completa-perfil.html --out generated
  campaign generate --roster roster.yaml --template completa-perfil.html --send`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&rosterPath, "roster", "roster.yaml", "roster YAML de profesionales")
	generateCmd.Flags().StringVar(&templatePath, "template", "", "plantilla HTML")
	generateCmd.Flags().StringVar(&outDir, "out", "generated", "directorio de salida")
	generateCmd.Flags().BoolVar(&send, "send", false, "enviar por SMTP además de generar")
	_ = generateCmd.MarkFlagRequired("template")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🚀 Iniciando campaña de emails...")

	f, err := os.Open(rosterPath)
	if err != nil {
		return fmt.Errorf("no se pudo abrir el roster: %w", err)
	}
	defer f.Close()

	roster, err := campaign.LoadRoster(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "📊 Total de profesionales: %d\n", len(roster))

	tpl, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("no se encontró el template HTML: %w", err)
	}

	emails, stats, err := campaign.Build(string(tpl), roster)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "📈 Estadísticas de la campaña:")
	fmt.Fprintf(out, "   • Solo ubicación faltante: %d\n", stats[campaign.MissingLocation])
	fmt.Fprintf(out, "   • Solo WhatsApp faltante: %d\n", stats[campaign.MissingWhatsapp])
	fmt.Fprintf(out, "   • Ambos datos faltantes: %d\n", stats[campaign.MissingBoth])

	if err := campaign.WriteOutput(outDir, emails); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ %d emails personalizados generados en: %s\n", len(emails), outDir)

	if !send {
		return nil
	}

	mc, err := config.ParseMail()
	if err != nil {
		return err
	}
	if !mc.Enabled() {
		return errors.New("--send requiere MAIL_HOST y MAIL_USER")
	}
	sender := mail.NewEmailSender(mc.Host, mc.Port, mc.User, mc.Pass, mc.From, os.Getenv("SITE_URL"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sent, failed := campaign.SendAll(ctx, sender, emails, sendPause, log)
	fmt.Fprintf(out, "🎉 Proceso completado: %d enviados, %d con error\n", sent, failed)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "❌ Error:", err)
		os.Exit(1)
	}
}
