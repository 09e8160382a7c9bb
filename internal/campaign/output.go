package campaign

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const ListFileName = "lista-envio.csv"

var csvHeader = []string{"Email", "Nombre", "Subject", "Profesion", "Datos Faltantes"}

func FileName(n int, email string) string {
	return fmt.Sprintf("email-%d-%s.html", n, strings.ReplaceAll(email, "@", "-at-"))
}

// WriteOutput guarda un HTML por destinatario y la lista CSV de envío.
func WriteOutput(dir string, emails []Email) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creando %s: %w", dir, err)
	}

	for i, e := range emails {
		path := filepath.Join(dir, FileName(i+1, e.To))
		if err := os.WriteFile(path, []byte(e.HTML), 0o644); err != nil {
			return fmt.Errorf("error escribiendo %s: %w", path, err)
		}
	}

	f, err := os.Create(filepath.Join(dir, ListFileName))
	if err != nil {
		return fmt.Errorf("error creando lista CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range emails {
		if err := w.Write([]string{e.To, e.Name, e.Subject, e.Profession, e.DataType}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error escribiendo lista CSV: %w", err)
	}
	return f.Close()
}
