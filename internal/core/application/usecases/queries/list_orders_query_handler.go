package queries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const orderSummaryColumns = `
	o.id,
	o.customer_id,
	o.store_id,
	o.courier_id,
	o.status,
	o.delivery_type,
	o.subtotal,
	o.delivery_fee,
	o.total,
	o.created_at
`

type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

// Handle returns one page of the scope's orders, newest first, with the
// total number of matching orders.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) (ListOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ListOrdersQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)

	conditions, args, err := h.scopeConditions(db, query)
	if err != nil {
		return ListOrdersQueryResponse{}, err
	}

	filter := query.Filter()
	if filter.Status != nil {
		conditions = append(conditions, "o.status = ?")
		args = append(args, filter.Status.String())
	}
	if filter.From != nil {
		conditions = append(conditions, "o.created_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conditions = append(conditions, "o.created_at <= ?")
		args = append(args, filter.To.UTC())
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	var total int64
	if err = db.Raw("SELECT COUNT(*) FROM orders o WHERE "+where, args...).Scan(&total).Error; err != nil {
		return ListOrdersQueryResponse{}, err
	}

	pageArgs := append(append([]any{}, args...), query.Limit(), query.Offset())
	rows, err := db.Raw(fmt.Sprintf(`
		SELECT %s
		FROM orders o
		WHERE %s
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ? OFFSET ?
	`, orderSummaryColumns, where), pageArgs...).Rows()
	if err != nil {
		return ListOrdersQueryResponse{}, err
	}
	defer rows.Close()

	orders, err := scanOrderSummaries(rows)
	if err != nil {
		return ListOrdersQueryResponse{}, err
	}

	return ListOrdersQueryResponse{
		Orders: orders,
		Total:  int(total),
		Page:   query.Page(),
		Limit:  query.Limit(),
	}, nil
}

// scopeConditions restricts the listing to the actor's orders. A store
// owner without a store and a delivery user without a courier profile get a
// NotFoundError.
func (h ListOrdersQueryHandler) scopeConditions(db *gorm.DB, query ListOrdersQuery) ([]string, []any, error) {
	actor := query.Actor()

	switch query.Scope() {
	case ScopeMine:
		return []string{"o.customer_id = ?"}, []any{actor.UserID.Bytes()}, nil

	case ScopeStore:
		if actor.Role == kernel.Admin {
			return nil, nil, nil
		}
		var stores int64
		if err := db.Raw("SELECT COUNT(*) FROM stores WHERE owner_id = ?", actor.UserID.Bytes()).
			Scan(&stores).Error; err != nil {
			return nil, nil, err
		}
		if stores == 0 {
			return nil, nil, errs.NewObjectNotFoundError("store", "owned by "+actor.UserID.String())
		}
		return []string{"o.store_id IN (SELECT id FROM stores WHERE owner_id = ?)"}, []any{actor.UserID.Bytes()}, nil

	case ScopeDelivery:
		if actor.Role == kernel.Admin {
			return []string{"o.courier_id IS NOT NULL"}, nil, nil
		}
		var profile struct {
			ID uuid.UUID
		}
		res := db.Raw("SELECT id FROM couriers WHERE user_id = ?", actor.UserID.Bytes()).Scan(&profile)
		if res.Error != nil {
			return nil, nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil, errs.NewObjectNotFoundError("courier", "of user "+actor.UserID.String())
		}
		return []string{"o.courier_id = ?"}, []any{profile.ID}, nil

	default:
		return nil, nil, errs.NewValueIsInvalidError("scope")
	}
}

func scanOrderSummaries(rows *sql.Rows) ([]OrderSummary, error) {
	orders := make([]OrderSummary, 0)
	for rows.Next() {
		var (
			id, customerID, storeID uuid.UUID
			courierID               uuid.NullUUID
			deliveryType            sql.NullString
			createdAt               time.Time
			summary                 OrderSummary
			err                     error
		)

		err = rows.Scan(
			&id,
			&customerID,
			&storeID,
			&courierID,
			&summary.Status,
			&deliveryType,
			&summary.Subtotal,
			&summary.DeliveryFee,
			&summary.Total,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		if summary.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if summary.CustomerID, err = kernel.UUIDFromBytes(customerID[:]); err != nil {
			return nil, err
		}
		if summary.StoreID, err = kernel.UUIDFromBytes(storeID[:]); err != nil {
			return nil, err
		}
		if summary.CourierID, err = nullableUUID(courierID); err != nil {
			return nil, err
		}
		summary.DeliveryType = deliveryType.String
		summary.CreatedAt = createdAt.UTC()

		orders = append(orders, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func nullableUUID(v uuid.NullUUID) (*kernel.UUID, error) {
	if !v.Valid {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes(v.UUID[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}
