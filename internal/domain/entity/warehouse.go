package entity

import "time"

// WarehouseType clase de bodega.
type WarehouseType string

const (
	WarehouseFixed      WarehouseType = "fixed"      // bodega física
	WarehouseTechnician WarehouseType = "technician" // stock en poder de un técnico
	WarehouseVehicle    WarehouseType = "vehicle"    // vehículo con conductor asignado
)

// Warehouse bodega donde se guarda stock.
type Warehouse struct {
	ID              string
	TenantID        string
	Name            string
	Type            WarehouseType
	UserID          string // dueño cuando es de técnico
	VehicleDriverID string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsCentral bodega fija sin responsable individual.
func (w *Warehouse) IsCentral() bool {
	return w.Type == WarehouseFixed && w.UserID == ""
}

func (w *Warehouse) IsVehicle() bool {
	return w.Type == WarehouseVehicle
}

// Custodian usuario que debe aceptar lo que llega a la bodega. Solo bodegas de técnico y
// vehículos tienen uno; una bodega fija recibe sin aceptación aunque tenga responsable.
func (w *Warehouse) Custodian() string {
	switch w.Type {
	case WarehouseTechnician:
		return w.UserID
	case WarehouseVehicle:
		return w.VehicleDriverID
	default:
		return ""
	}
}
