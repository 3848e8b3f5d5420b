package cmd

import (
	"log/slog"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/staffregistry"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"gorm.io/gorm"
)

// Backend is the storage side of the application: transactions, the courier
// registry and the read models.
type Backend struct {
	UoWFactory       ports.UnitOfWorkFactory
	Registry         ports.StaffRegistry
	AssignableOrders jobs.AssignableOrdersReader
	Couriers         httpin.CouriersReader
	Order            httpin.OrderReader
	Orders           httpin.OrdersLister
	Courier          httpin.CourierReader
	CourierStats     httpin.CourierStatsReader
}

func NewPostgresBackend(db *gorm.DB, now commands.Clock) Backend {
	return Backend{
		UoWFactory:       postgres.NewGormUnitOfWorkFactory(db),
		Registry:         staffregistry.NewGormStaffRegistry(db, now),
		AssignableOrders: queries.NewGetAssignableOrdersQueryHandler(db),
		Couriers:         queries.NewGetAllCouriersQueryHandler(db),
		Order:            queries.NewGetOrderQueryHandler(db),
		Orders:           queries.NewListOrdersQueryHandler(db),
		Courier:          queries.NewGetCourierQueryHandler(db),
		CourierStats:     queries.NewGetCourierStatsQueryHandler(db),
	}
}

func NewMemoryBackend(store *memory.Store) Backend {
	return Backend{
		UoWFactory:       memory.NewUnitOfWorkFactory(store),
		Registry:         memory.NewStaffRegistry(store),
		AssignableOrders: memory.NewAssignableOrdersQueryHandler(store),
		Couriers:         memory.NewAllCouriersQueryHandler(store),
		Order:            memory.NewOrderQueryHandler(store),
		Orders:           memory.NewListOrdersQueryHandler(store),
		Courier:          memory.NewCourierQueryHandler(store),
		CourierStats:     memory.NewCourierStatsQueryHandler(store),
	}
}

// Notifications bundles the outbound notification path with the presence
// and inbox state the HTTP layer exposes.
type Notifications struct {
	Notifier ports.Notifier
	Sessions *notify.SessionRouter
	Inbox    httpin.Inbox
}

type CompositionRoot struct {
	cfg           Config
	backend       Backend
	notifications Notifications
	now           commands.Clock
	logger        *slog.Logger

	pricing services.DeliveryPricing
	geo     services.GeoIndex
	policy  services.TransitionPolicy
}

func NewCompositionRoot(cfg Config, backend Backend, notifications Notifications, now commands.Clock, logger *slog.Logger) (CompositionRoot, error) {
	pricing, err := services.NewDeliveryPricing(cfg.PlatformDeliveryFee)
	if err != nil {
		return CompositionRoot{}, err
	}

	var margin services.SafetyMargin = services.NewRandomMargin(cfg.EtaSeed)
	if cfg.EtaSafetyMargin != nil {
		fixed, marginErr := services.NewFixedMargin(*cfg.EtaSafetyMargin)
		if marginErr != nil {
			return CompositionRoot{}, marginErr
		}
		margin = fixed
	}

	if notifications.Sessions == nil {
		notifications.Sessions = notify.NewSessionRouter()
	}
	if notifications.Notifier == nil {
		notifications.Notifier = notify.NewLogNotifier(logger)
	}
	if now == nil {
		now = time.Now
	}

	return CompositionRoot{
		cfg:           cfg,
		backend:       backend,
		notifications: notifications,
		now:           now,
		logger:        logger,
		pricing:       pricing,
		geo:           services.NewGeoIndex(margin),
		policy:        services.NewTransitionPolicy(),
	}, nil
}

func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.backend.UoWFactory.Create()
	})
}

func (c *CompositionRoot) orderUoW() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.backend.UoWFactory.Create()
	})
}

func (c *CompositionRoot) courierUoW() commands.CourierUoWFactory {
	return FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.backend.UoWFactory.Create()
	})
}

func (c *CompositionRoot) CreateAssignCourierCommandHandler() commands.AssignCourierCommandHandler {
	return commands.NewAssignCourierCommandHandler(c.uow(), c.backend.Registry, c.geo, c.notifications.Notifier,
		commands.AssignmentSettings{
			MaxDistanceKm:   c.cfg.MaxDistanceKm,
			SnapshotTimeout: c.cfg.SnapshotTimeout,
		}, c.now, c.logger)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoW(), c.pricing, c.CreateAssignCourierCommandHandler(),
		c.notifications.Notifier, c.now, c.logger)
}

func (c *CompositionRoot) CreateTransitionOrderStatusCommandHandler() commands.TransitionOrderStatusCommandHandler {
	return commands.NewTransitionOrderStatusCommandHandler(c.uow(), c.backend.Registry, c.policy,
		c.notifications.Notifier, c.now, c.logger)
}

func (c *CompositionRoot) CreateCreateCourierCommandHandler() commands.CreateCourierCommandHandler {
	return commands.NewCreateCourierCommandHandler(c.courierUoW(), c.now, c.logger)
}

func (c *CompositionRoot) CreateReviewCourierCommandHandler() commands.ReviewCourierCommandHandler {
	return commands.NewReviewCourierCommandHandler(c.courierUoW(), c.logger)
}

func (c *CompositionRoot) CreateDeactivateCourierCommandHandler() commands.DeactivateCourierCommandHandler {
	return commands.NewDeactivateCourierCommandHandler(c.courierUoW(), c.logger)
}

func (c *CompositionRoot) CreateUpdateCourierAvailabilityCommandHandler() commands.UpdateCourierAvailabilityCommandHandler {
	return commands.NewUpdateCourierAvailabilityCommandHandler(c.courierUoW(), c.backend.Registry, c.logger)
}

func (c *CompositionRoot) CreateUpdateCourierLocationCommandHandler() commands.UpdateCourierLocationCommandHandler {
	return commands.NewUpdateCourierLocationCommandHandler(c.courierUoW(), c.backend.Registry, c.logger)
}

func (c *CompositionRoot) CreateServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		CreateOrder:         c.CreateCreateOrderCommandHandler(),
		TransitionOrder:     c.CreateTransitionOrderStatusCommandHandler(),
		AssignCourier:       c.CreateAssignCourierCommandHandler(),
		CreateCourier:       c.CreateCreateCourierCommandHandler(),
		ReviewCourier:       c.CreateReviewCourierCommandHandler(),
		DeactivateCourier:   c.CreateDeactivateCourierCommandHandler(),
		CourierAvailability: c.CreateUpdateCourierAvailabilityCommandHandler(),
		CourierLocation:     c.CreateUpdateCourierLocationCommandHandler(),
		Couriers:            c.backend.Couriers,
		Order:               c.backend.Order,
		Orders:              c.backend.Orders,
		Courier:             c.backend.Courier,
		CourierStats:        c.backend.CourierStats,
	}, c.notifications.Sessions, c.notifications.Inbox, c.logger)
}

func (c *CompositionRoot) CreateAssignmentRetryJob() *jobs.AssignmentRetryJob {
	return jobs.NewAssignmentRetryJob(c.backend.AssignableOrders, c.CreateAssignCourierCommandHandler(),
		c.cfg.RetrySchedule, queries.DefaultAssignableOrdersLimit, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateAssignmentRetryJob())
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
