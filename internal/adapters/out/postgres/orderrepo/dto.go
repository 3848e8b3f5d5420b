// Package orderrepo maps the order aggregate to the orders and order_items
// tables and guards writes with an optimistic version column.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is a row of the orders table. Subtotal and Total are stored for
// read models only; RestoreOrder recomputes them from the items.
type OrderDTO struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	StoreID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	Address             AddressDTO      `gorm:"embedded;embeddedPrefix:address_"`
	Status              string          `gorm:"type:varchar(32);not null;index"`
	CourierID           *uuid.UUID      `gorm:"type:uuid;index"`
	Assignment          AssignmentDTO   `gorm:"embedded;embeddedPrefix:assignment_"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryFee         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total               decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryType        string          `gorm:"type:varchar(16);not null;index"`
	PaymentMethod       string          `gorm:"type:varchar(16);not null"`
	Notes               string          `gorm:"type:text"`
	CancellationReason  string          `gorm:"type:text"`
	CreatedAt           time.Time       `gorm:"not null;index"`
	DeliveredAt         *time.Time
	EstimatedDeliveryAt *time.Time
	StockReserved       bool           `gorm:"not null"`
	Version             int            `gorm:"not null;default:0"`
	Items               []OrderItemDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// AddressDTO is the delivery destination embedded in the orders table.
type AddressDTO struct {
	Lat            float64 `gorm:"type:double precision;not null"`
	Lon            float64 `gorm:"type:double precision;not null"`
	Text           string  `gorm:"type:text;not null"`
	Details        string  `gorm:"type:text"`
	RecipientName  string  `gorm:"type:varchar(255)"`
	RecipientPhone string  `gorm:"type:varchar(64)"`
}

// AssignmentDTO keeps the last assignment record. All columns are NULL while
// the order has never been assigned.
type AssignmentDTO struct {
	CourierID  *uuid.UUID `gorm:"type:uuid"`
	DistanceKm *float64   `gorm:"type:double precision"`
	EtaMinutes *int
	AssignedAt *time.Time
}

// OrderItemDTO is a row of order_items. Position keeps the original line order.
type OrderItemDTO struct {
	OrderID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position  int             `gorm:"primaryKey;autoIncrement:false"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	StoreID   uuid.UUID       `gorm:"type:uuid;not null"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

func fromDomain(o *order.Order) OrderDTO {
	orderID := o.ID().Bytes()

	var courierID *uuid.UUID
	if id := o.CourierID(); id != nil {
		raw := id.Bytes()
		courierID = &raw
	}

	var assignment AssignmentDTO
	if record := o.Assignment(); record != nil {
		raw := record.CourierID().Bytes()
		km := record.DistanceKm()
		eta := record.EtaMinutes()
		at := record.AssignedAt()
		assignment = AssignmentDTO{CourierID: &raw, DistanceKm: &km, EtaMinutes: &eta, AssignedAt: &at}
	}

	items := make([]OrderItemDTO, 0, len(o.Items()))
	for i, item := range o.Items() {
		items = append(items, OrderItemDTO{
			OrderID:   orderID,
			Position:  i,
			ProductID: item.ProductID().Bytes(),
			StoreID:   item.StoreID().Bytes(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}

	address := o.Address()

	return OrderDTO{
		ID:         orderID,
		CustomerID: o.CustomerID().Bytes(),
		StoreID:    o.StoreID().Bytes(),
		Address: AddressDTO{
			Lat:            address.Point().Lat(),
			Lon:            address.Point().Lon(),
			Text:           address.Text(),
			Details:        address.Details(),
			RecipientName:  address.RecipientName(),
			RecipientPhone: address.RecipientPhone(),
		},
		Status:              o.Status().String(),
		CourierID:           courierID,
		Assignment:          assignment,
		Subtotal:            o.Subtotal(),
		DeliveryFee:         o.DeliveryFee(),
		Total:               o.Total(),
		DeliveryType:        deliveryTypeColumn(o.DeliveryType()),
		PaymentMethod:       o.PaymentMethod().String(),
		Notes:               o.Notes(),
		CancellationReason:  o.CancellationReason(),
		CreatedAt:           o.CreatedAt(),
		DeliveredAt:         o.DeliveredAt(),
		EstimatedDeliveryAt: o.EstimatedDeliveryAt(),
		StockReserved:       o.StockReserved(),
		Version:             o.Version(),
		Items:               items,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	storeID, err := kernel.UUIDFromBytes(dto.StoreID[:])
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	payment, err := order.ParsePaymentMethod(dto.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var deliveryType order.DeliveryType
	if dto.DeliveryType != "" {
		if deliveryType, err = order.ParseDeliveryType(dto.DeliveryType); err != nil {
			return nil, err
		}
	}

	point, err := kernel.NewGeoPoint(dto.Address.Lat, dto.Address.Lon)
	if err != nil {
		return nil, err
	}
	address, err := kernel.NewAddress(point, dto.Address.Text, dto.Address.Details,
		dto.Address.RecipientName, dto.Address.RecipientPhone)
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.CourierID != nil {
		cID, idErr := kernel.UUIDFromBytes((*dto.CourierID)[:])
		if idErr != nil {
			return nil, idErr
		}
		courierID = &cID
	}

	assignment, err := assignmentToDomain(id, dto.Assignment)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, itemErr := itemToDomain(itemDTO)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	return order.RestoreOrder(order.RestoreParams{
		ID:                  id,
		CustomerID:          customerID,
		StoreID:             storeID,
		Items:               items,
		Address:             address,
		Status:              status,
		CourierID:           courierID,
		Assignment:          assignment,
		DeliveryFee:         dto.DeliveryFee,
		DeliveryType:        deliveryType,
		PaymentMethod:       payment,
		Notes:               dto.Notes,
		CancellationReason:  dto.CancellationReason,
		CreatedAt:           dto.CreatedAt,
		DeliveredAt:         utcPtr(dto.DeliveredAt),
		EstimatedDeliveryAt: utcPtr(dto.EstimatedDeliveryAt),
		StockReserved:       dto.StockReserved,
		Version:             dto.Version,
	})
}

func assignmentToDomain(orderID kernel.UUID, dto AssignmentDTO) (*order.AssignmentRecord, error) {
	if dto.CourierID == nil || dto.DistanceKm == nil || dto.EtaMinutes == nil || dto.AssignedAt == nil {
		return nil, nil //nolint:nilnil // never assigned
	}

	courierID, err := kernel.UUIDFromBytes((*dto.CourierID)[:])
	if err != nil {
		return nil, err
	}

	record, err := order.NewAssignmentRecord(orderID, courierID, *dto.DistanceKm, *dto.EtaMinutes, *dto.AssignedAt)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func itemToDomain(dto OrderItemDTO) (order.Item, error) {
	productID, err := kernel.UUIDFromBytes(dto.ProductID[:])
	if err != nil {
		return order.Item{}, err
	}
	storeID, err := kernel.UUIDFromBytes(dto.StoreID[:])
	if err != nil {
		return order.Item{}, err
	}
	return order.NewItem(productID, storeID, dto.Name, dto.Quantity, dto.UnitPrice)
}

// deliveryTypeColumn stores an unpriced order as an empty string.
func deliveryTypeColumn(t order.DeliveryType) string {
	if t.Validate() != nil {
		return ""
	}
	return t.String()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
