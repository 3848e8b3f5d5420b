package courierrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// GormCourierRepository implements ports.CourierRepository using GORM.
type GormCourierRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormCourierRepository(db *gorm.DB, tracker aggregateTracker) *GormCourierRepository {
	return &GormCourierRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts a new profile. A second profile for the same user violates the
// user_id unique index and is reported as a ConflictError.
func (r *GormCourierRepository) Add(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate, time.Now().UTC())
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewConflictErrorWithCause("courier",
				fmt.Sprintf("user %s already has a courier profile", aggregate.UserID()), err)
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes the courier columns and reconciles courier_assignments with
// the aggregate's assignment set. Rows for orders still held keep their
// original assigned_at.
func (r *GormCourierRepository) Update(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate, time.Now().UTC())
	db := r.db.WithContext(ctx)

	result := db.Model(&CourierDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id", "user_id", "created_at", clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("courier", aggregate.ID().String())
	}

	if err := syncAssignments(db, dto); err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get loads the courier and locks its row until the surrounding transaction ends.
func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CourierDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Assignments", orderByAssignedAt).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("courier", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormCourierRepository) GetByUserID(ctx context.Context, userID kernel.UUID) (*courier.Courier, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}

	var dto CourierDTO
	err := r.db.WithContext(ctx).
		Preload("Assignments", orderByAssignedAt).
		First(&dto, "user_id = ?", userID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("courier of user", userID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func syncAssignments(db *gorm.DB, dto CourierDTO) error {
	held := make([]uuid.UUID, 0, len(dto.Assignments))
	for _, a := range dto.Assignments {
		held = append(held, a.OrderID)
	}

	stale := db.Where("courier_id = ?", dto.ID)
	if len(held) > 0 {
		stale = stale.Where("order_id NOT IN ?", held)
	}
	if err := stale.Delete(&AssignmentDTO{}).Error; err != nil {
		return err
	}

	if len(dto.Assignments) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&dto.Assignments).Error
}

func orderByAssignedAt(db *gorm.DB) *gorm.DB {
	return db.Order("assigned_at, order_id")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
