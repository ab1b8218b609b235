package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/famto/api/internal/platform/config"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
	firestorerepo "github.com/famto/api/internal/repositories/firestore"
	"github.com/famto/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete
// implementations are assembled via dependency injection in NewContainer.
type Services struct {
	Cart        services.CartService
	Orders      services.OrderService
	Promotions  services.PromotionService
	Wallet      services.WalletService
	Rewards     services.RewardsService
	Settlements services.SettlementService
	System      services.SystemService
}

// Repositories holds the Firestore-backed persistence layer so callers such as
// the HTTP entrypoint can reach individual stores when wiring collaborators.
type Repositories struct {
	Carts           repositories.CartRepository
	TemporaryOrders repositories.TemporaryOrderRepository
	Orders          repositories.OrderRepository
	ScheduledOrders repositories.ScheduledOrderRepository
	Tasks           repositories.TaskRepository
	Customers       repositories.CustomerRepository
	Agents          repositories.AgentRepository
	Merchants       repositories.MerchantRepository
	Promotions      repositories.PromotionRepository
	Discounts       repositories.DiscountRepository
	Tariffs         repositories.TariffRepository
	Taxes           repositories.TaxRepository
	RewardRules     repositories.RewardRuleRepository
	Counters        repositories.CounterRepository
	UnitOfWork      repositories.UnitOfWork
}

// Collaborators carries the external adapters the service layer depends on.
// All fields are optional; services that require a missing collaborator fail
// construction with an explicit error.
type Collaborators struct {
	Routes       services.RouteResolver
	Geofences    services.GeofenceResolver
	Payments     services.PaymentGateway
	Notifier     services.Notifier
	Blobs        services.BlobStore
	Events       services.OrderEventPublisher
	HealthChecks []repositories.DependencyCheck
	Logger       func(ctx context.Context, event string, fields map[string]any)
	Clock        func() time.Time
	Build        services.BuildInfo
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Provider     *pfirestore.Provider
	Repositories Repositories
	Services     Services
}

// NewContainer constructs the runtime dependency graph on top of the shared
// Firestore provider. External adapters (routing, payments, notifications,
// events) are injected by the caller so tests can substitute fakes.
func NewContainer(cfg config.Config, provider *pfirestore.Provider, ext Collaborators) (*Container, error) {
	if provider == nil {
		return nil, errors.New("firestore provider is required")
	}

	repos, err := buildRepositories(provider)
	if err != nil {
		return nil, err
	}

	svc, err := buildServices(cfg, repos, ext)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Provider:     provider,
		Repositories: repos,
		Services:     svc,
	}, nil
}

// Close releases the Firestore client and any other held resources.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Provider == nil {
		return nil
	}
	return c.Provider.Close(ctx)
}

func buildRepositories(provider *pfirestore.Provider) (Repositories, error) {
	var repos Repositories

	carts, err := firestorerepo.NewCartRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build cart repository: %w", err)
	}
	tempOrders, err := firestorerepo.NewTemporaryOrderRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build temporary order repository: %w", err)
	}
	orders, err := firestorerepo.NewOrderRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build order repository: %w", err)
	}
	scheduled, err := firestorerepo.NewScheduledOrderRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build scheduled order repository: %w", err)
	}
	tasks, err := firestorerepo.NewTaskRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build task repository: %w", err)
	}
	customers, err := firestorerepo.NewCustomerRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build customer repository: %w", err)
	}
	agents, err := firestorerepo.NewAgentRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build agent repository: %w", err)
	}
	merchants, err := firestorerepo.NewMerchantRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build merchant repository: %w", err)
	}
	promotions, err := firestorerepo.NewPromotionRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build promotion repository: %w", err)
	}
	discounts, err := firestorerepo.NewDiscountRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build discount repository: %w", err)
	}
	tariffs, err := firestorerepo.NewTariffRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build tariff repository: %w", err)
	}
	taxes, err := firestorerepo.NewTaxRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build tax repository: %w", err)
	}
	rules, err := firestorerepo.NewRewardRuleRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build reward rule repository: %w", err)
	}
	counters, err := firestorerepo.NewCounterRepository(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build counter repository: %w", err)
	}
	uow, err := firestorerepo.NewUnitOfWork(provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build unit of work: %w", err)
	}

	repos = Repositories{
		Carts:           carts,
		TemporaryOrders: tempOrders,
		Orders:          orders,
		ScheduledOrders: scheduled,
		Tasks:           tasks,
		Customers:       customers,
		Agents:          agents,
		Merchants:       merchants,
		Promotions:      promotions,
		Discounts:       discounts,
		Tariffs:         tariffs,
		Taxes:           taxes,
		RewardRules:     rules,
		Counters:        counters,
		UnitOfWork:      uow,
	}
	return repos, nil
}

func buildServices(cfg config.Config, repos Repositories, ext Collaborators) (Services, error) {
	var svc Services

	clock := ext.Clock
	if clock == nil {
		clock = time.Now
	}

	promotionSvc, err := services.NewPromotionService(services.PromotionServiceDeps{
		Promotions: repos.Promotions,
		Discounts:  repos.Discounts,
		Clock:      clock,
		Logger:     ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build promotion service: %w", err)
	}
	svc.Promotions = promotionSvc

	walletSvc, err := services.NewWalletService(services.WalletServiceDeps{
		Customers: repos.Customers,
		Clock:     clock,
		Logger:    ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build wallet service: %w", err)
	}
	svc.Wallet = walletSvc

	rewardsSvc, err := services.NewRewardsService(services.RewardsServiceDeps{
		Customers: repos.Customers,
		Rules:     repos.RewardRules,
		Clock:     clock,
		Logger:    ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build rewards service: %w", err)
	}
	svc.Rewards = rewardsSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Carts:      repos.Carts,
		Customers:  repos.Customers,
		Merchants:  repos.Merchants,
		Tariffs:    repos.Tariffs,
		Taxes:      repos.Taxes,
		Promotions: promotionSvc,
		Routes:     ext.Routes,
		Geofences:  ext.Geofences,
		Clock:      clock,
		Logger:     ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:          repos.Orders,
		ScheduledOrders: repos.ScheduledOrders,
		TemporaryOrders: repos.TemporaryOrders,
		Tasks:           repos.Tasks,
		Carts:           repos.Carts,
		Merchants:       repos.Merchants,
		Counters:        repos.Counters,
		Wallet:          walletSvc,
		Payments:        ext.Payments,
		Commission:      services.NewCommissionCalculator(),
		Notifier:        ext.Notifier,
		UnitOfWork:      repos.UnitOfWork,
		Clock:           clock,
		Events:          ext.Events,
		Logger:          ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	settlementSvc, err := services.NewSettlementService(services.SettlementServiceDeps{
		Orders:          repos.Orders,
		ScheduledOrders: repos.ScheduledOrders,
		Tasks:           repos.Tasks,
		Agents:          repos.Agents,
		Customers:       repos.Customers,
		Tariffs:         repos.Tariffs,
		Rewards:         rewardsSvc,
		Blobs:           ext.Blobs,
		Notifier:        ext.Notifier,
		Events:          ext.Events,
		Clock:           clock,
		Logger:          ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build settlement service: %w", err)
	}
	svc.Settlements = settlementSvc

	if len(ext.HealthChecks) > 0 {
		healthRepo, err := repositories.NewDependencyHealthRepository(ext.HealthChecks)
		if err != nil {
			return Services{}, fmt.Errorf("build health repository: %w", err)
		}
		build := ext.Build
		if build.Environment == "" {
			build.Environment = cfg.Security.Environment
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            clock,
			Build:            build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
