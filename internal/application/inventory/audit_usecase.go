package inventory

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// AuditReport diferencias encontradas; vacío si libro, saldos y agregados cuadran.
type AuditReport struct {
	TenantID        string
	WarehouseID     string
	BalanceDrifts   []repository.BalanceDrift
	AggregateDrifts []repository.AggregateDrift
}

func (r *AuditReport) Consistent() bool {
	return len(r.BalanceDrifts) == 0 && len(r.AggregateDrifts) == 0
}

// BalanceAuditUseCase recalcula los saldos desde el libro y los compara con los materializados.
type BalanceAuditUseCase struct {
	repos Repos
}

func NewBalanceAuditUseCase(repos Repos) *BalanceAuditUseCase {
	return &BalanceAuditUseCase{repos: repos}
}

func (uc *BalanceAuditUseCase) Verify(ctx context.Context, tenantID, warehouseID string) (*AuditReport, error) {
	if tenantID == "" {
		return nil, domain.Invalid("tenant_id es obligatorio")
	}
	balances, err := uc.repos.Audit.LedgerDrift(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	aggregates, err := uc.repos.Audit.AggregateDrift(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &AuditReport{
		TenantID:        tenantID,
		WarehouseID:     warehouseID,
		BalanceDrifts:   balances,
		AggregateDrifts: aggregates,
	}, nil
}
