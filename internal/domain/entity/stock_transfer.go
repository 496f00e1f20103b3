package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

// TransferStatus estado de una transferencia entre bodegas.
type TransferStatus string

const (
	TransferPendingAcceptance TransferStatus = "pending_acceptance"
	TransferAccepted          TransferStatus = "accepted"
	TransferCompleted         TransferStatus = "completed" // aplicada al crear, sin aceptación
	TransferRejected          TransferStatus = "rejected"
	TransferCancelled         TransferStatus = "cancelled"
)

func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferPendingAcceptance, TransferAccepted, TransferCompleted, TransferRejected, TransferCancelled:
		return true
	}
	return false
}

// IsTerminal solo pending_acceptance admite transiciones.
func (s TransferStatus) IsTerminal() bool {
	return s != TransferPendingAcceptance
}

// StockTransfer solicitud de traslado de uno o más productos.
type StockTransfer struct {
	ID              string
	TenantID        string
	FromWarehouseID string
	ToWarehouseID   string
	ToUserID        string
	Status          TransferStatus
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	AcceptedBy      string
	AcceptedAt      *time.Time
	RejectedBy      string
	RejectedAt      *time.Time
	RejectionReason string
	CancelledBy     string
	CancelledAt     *time.Time
	Items           []StockTransferItem
}

type StockTransferItem struct {
	ID         string
	TransferID string
	ProductID  string
	BatchID    string
	Quantity   decimal.Decimal
	Position   int
}

func (t *StockTransfer) ensurePending(action string) error {
	if t.Status != TransferPendingAcceptance {
		return domain.IllegalState("no se puede %s una transferencia en estado %s", action, t.Status)
	}
	return nil
}

// Complete marca como aplicada una transferencia que no requería aceptación.
func (t *StockTransfer) Complete(by string, at time.Time) {
	t.Status = TransferCompleted
	t.AcceptedBy = by
	t.AcceptedAt = &at
	t.UpdatedAt = at
}

func (t *StockTransfer) Accept(by string, at time.Time) error {
	if err := t.ensurePending("aceptar"); err != nil {
		return err
	}
	t.Status = TransferAccepted
	t.AcceptedBy = by
	t.AcceptedAt = &at
	t.UpdatedAt = at
	return nil
}

func (t *StockTransfer) Reject(by, reason string, at time.Time) error {
	if err := t.ensurePending("rechazar"); err != nil {
		return err
	}
	t.Status = TransferRejected
	t.RejectedBy = by
	t.RejectedAt = &at
	t.RejectionReason = reason
	t.UpdatedAt = at
	return nil
}

func (t *StockTransfer) Cancel(by string, at time.Time) error {
	if err := t.ensurePending("cancelar"); err != nil {
		return err
	}
	t.Status = TransferCancelled
	t.CancelledBy = by
	t.CancelledAt = &at
	t.UpdatedAt = at
	return nil
}
