package entity

import "github.com/jhoicas/stockledger-api/internal/domain"

// ReferenceKind origen de negocio de un movimiento.
type ReferenceKind string

const (
	ReferenceManual          ReferenceKind = "manual"
	ReferenceWorkOrder       ReferenceKind = "work_order"
	ReferenceStockTransfer   ReferenceKind = "stock_transfer"
	ReferenceInventoryCount  ReferenceKind = "inventory_count"
	ReferenceKit             ReferenceKind = "kit"
	ReferencePurchaseReceipt ReferenceKind = "purchase_receipt"
)

func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferenceManual, ReferenceWorkOrder, ReferenceStockTransfer,
		ReferenceInventoryCount, ReferenceKit, ReferencePurchaseReceipt:
		return true
	}
	return false
}

// Reference unión etiquetada: Kind decide qué significa ID.
// Manual no lleva ID; el resto sí.
type Reference struct {
	Kind  ReferenceKind
	ID    string
	Label string
}

func ManualReference(label string) Reference {
	return Reference{Kind: ReferenceManual, Label: label}
}

func WorkOrderReference(workOrderID, number string) Reference {
	return Reference{Kind: ReferenceWorkOrder, ID: workOrderID, Label: "OS-" + number}
}

func TransferReference(transferID string) Reference {
	return Reference{Kind: ReferenceStockTransfer, ID: transferID, Label: "Transferencia " + shortID(transferID)}
}

func InventoryCountReference(countID, label string) Reference {
	if label == "" {
		label = "Inventario " + shortID(countID)
	}
	return Reference{Kind: ReferenceInventoryCount, ID: countID, Label: label}
}

func KitReference(kitProductID, kitName string) Reference {
	return Reference{Kind: ReferenceKit, ID: kitProductID, Label: "Kit " + kitName}
}

func PurchaseReceiptReference(receiptID, number string) Reference {
	return Reference{Kind: ReferencePurchaseReceipt, ID: receiptID, Label: "Recepción " + number}
}

// Validate una referencia vacía se considera manual.
func (r Reference) Validate() error {
	if r.Kind == "" {
		if r.ID != "" {
			return domain.Invalid("referencia con id pero sin tipo")
		}
		return nil
	}
	if !r.Kind.IsValid() {
		return domain.Invalid("tipo de referencia desconocido %q", r.Kind)
	}
	if r.Kind == ReferenceManual {
		if r.ID != "" {
			return domain.Invalid("la referencia manual no lleva id")
		}
		return nil
	}
	if r.ID == "" {
		return domain.Invalid("la referencia %s requiere id", r.Kind)
	}
	return nil
}

// Normalized devuelve la referencia con Kind manual si venía vacío.
func (r Reference) Normalized() Reference {
	if r.Kind == "" {
		r.Kind = ReferenceManual
	}
	return r
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
