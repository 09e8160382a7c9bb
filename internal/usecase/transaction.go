package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Transaction ejecuta operaciones en orden y, si una falla, corre en orden inverso
// las compensaciones de las que ya se ejecutaron.
type Transaction struct {
	operations    []Operation
	compensations []Compensation
	logger        *zap.Logger
}

type Operation struct {
	Name string
	Fn   func(context.Context) error
}

type Compensation struct {
	Name string
	Fn   func(context.Context) error
}

func NewTransaction(logger *zap.Logger) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{logger: logger}
}

// AddOperation registra una operación. La compensación con el mismo índice la revierte;
// una operación sin compensación se registra con AddCompensation(name, nil).
func (t *Transaction) AddOperation(name string, fn func(context.Context) error) {
	t.operations = append(t.operations, Operation{name, fn})
}

func (t *Transaction) AddCompensation(name string, fn func(context.Context) error) {
	t.compensations = append(t.compensations, Compensation{name, fn})
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.Fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.Name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAtIndex int) {
	for i := failedAtIndex - 1; i >= 0; i-- {
		if i >= len(t.compensations) || t.compensations[i].Fn == nil {
			continue
		}
		comp := t.compensations[i]
		if err := comp.Fn(ctx); err != nil {
			t.logger.Warn("⚠️ Compensación falló (riesgo de inconsistencia)",
				zap.String("compensation", comp.Name), zap.Error(err))
			continue
		}
		t.logger.Info("↩️ Compensación aplicada", zap.String("compensation", comp.Name))
	}
}
