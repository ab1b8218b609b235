package repositories

import (
	"context"
	"time"

	domain "github.com/famto/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CartRepository owns the single draft cart per customer with optimistic locking guarantees.
type CartRepository interface {
	Upsert(ctx context.Context, cart domain.Cart, expectedUpdate *time.Time) (domain.Cart, error)
	FindByCustomer(ctx context.Context, customerID string) (domain.Cart, error)
	Delete(ctx context.Context, customerID string) error
}

// TemporaryOrderRepository stages confirmed carts for the cancellation window.
// Claim is the single atomic fetch-and-delete guarding both the promote and
// cancel paths: exactly one caller wins, the loser observes not-found.
type TemporaryOrderRepository interface {
	Insert(ctx context.Context, order domain.TemporaryOrder) error
	FindByID(ctx context.Context, temporaryOrderID string) (domain.TemporaryOrder, error)
	Claim(ctx context.Context, temporaryOrderID string) (domain.TemporaryOrder, error)
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]domain.TemporaryOrder, error)
}

// OrderRepository persists durable order documents. Orders are never removed;
// cancellation is a status transition.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error

	// Update overwrites the order document. When expectedUpdate is set, the
	// write only succeeds if the stored document still carries that update
	// time; a stale snapshot fails with a conflict error.
	Update(ctx context.Context, order domain.Order, expectedUpdate *time.Time) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// ScheduledOrderRepository persists multi-day scheduled order documents.
type ScheduledOrderRepository interface {
	Insert(ctx context.Context, order domain.ScheduledOrder) error
	Update(ctx context.Context, order domain.ScheduledOrder) error
	FindByID(ctx context.Context, orderID string) (domain.ScheduledOrder, error)
}

// TaskRepository stores agent work units created at merchant confirmation.
type TaskRepository interface {
	Insert(ctx context.Context, task domain.Task) error
	Update(ctx context.Context, task domain.Task) error
	FindByID(ctx context.Context, taskID string) (domain.Task, error)
	FindByOrder(ctx context.Context, orderID string) (domain.Task, error)
	NextQueued(ctx context.Context, agentID string) (domain.Task, error)
}

// WalletMovement describes one balance change plus its paired ledger entries.
type WalletMovement struct {
	TransactionID string
	Amount        float64
	Type          domain.WalletTransactionType
	Category      domain.TransactionType
	OrderID       *string
	Description   string
	Now           time.Time
}

// CustomerRepository stores customers and provides the atomic wallet, loyalty
// and referral mutations the settlement flows depend on.
type CustomerRepository interface {
	FindByID(ctx context.Context, customerID string) (domain.Customer, error)
	Update(ctx context.Context, customer domain.Customer) error

	// ApplyWalletMovement changes the balance and appends the wallet and
	// high-level ledger entries in one transaction. Debits exceeding the
	// balance fail with a conflict error and leave no trace.
	ApplyWalletMovement(ctx context.Context, customerID string, movement WalletMovement) (domain.Customer, error)

	// ApplyLoyalty moves the three loyalty counters and appends the history
	// entry in one transaction.
	ApplyLoyalty(ctx context.Context, customerID string, points int, entry domain.LoyaltyPointEntry) (domain.Customer, error)

	// CreditReferral credits referrer and referee in one transaction and flips
	// the referee's processed flag. A second call for the same referee fails
	// with a conflict error.
	CreditReferral(ctx context.Context, referrerID string, referrerMovement WalletMovement, refereeID string, refereeMovement WalletMovement) error

	// AdvanceSubscriptionUsage increments the subscribed customer's order
	// counter. A no-op (not an error) when no active subscription exists.
	AdvanceSubscriptionUsage(ctx context.Context, customerID string, now time.Time) error
}

// AgentCompletionRecord carries the per-order deltas applied when an agent
// completes a delivery.
type AgentCompletionRecord struct {
	OrderID     string
	DistanceKm  float64
	Earning     float64
	CompletedAt time.Time
}

// AgentRepository stores agents and their running counters plus day history.
type AgentRepository interface {
	FindByID(ctx context.Context, agentID string) (domain.Agent, error)
	Update(ctx context.Context, agent domain.Agent) error

	// RecordCompletion increments the agent counters, bumps taskCompleted and
	// appends the earnings record to today's history entry (creating it when
	// this is the first completion of the calendar day) in one transaction.
	RecordCompletion(ctx context.Context, agentID string, record AgentCompletionRecord) (domain.Agent, error)
}

// MerchantRepository stores merchant profiles consulted during cart and order flows.
type MerchantRepository interface {
	FindByID(ctx context.Context, merchantID string) (domain.Merchant, error)
}

// PromotionRepository maintains promo code definitions and redemption counters.
type PromotionRepository interface {
	FindByCode(ctx context.Context, code string, geofenceID string) (domain.Promotion, error)

	// Redeem atomically increments noOfUserUsed, failing with a conflict error
	// when maxAllowedUsers is already reached.
	Redeem(ctx context.Context, promotionID string, now time.Time) (domain.Promotion, error)

	// ReleaseRedemption undoes a Redeem whose surrounding cart save failed.
	ReleaseRedemption(ctx context.Context, promotionID string, now time.Time) error
}

// DiscountRepository looks up active merchant and product discounts.
type DiscountRepository interface {
	ActiveMerchantDiscount(ctx context.Context, merchantID string, now time.Time) (domain.MerchantDiscount, error)
	ActiveProductDiscounts(ctx context.Context, merchantID string, productIDs []string, now time.Time) (map[string]domain.ProductDiscount, error)
}

// TariffRepository resolves the geofence-scoped pricing tables.
type TariffRepository interface {
	CustomerTariff(ctx context.Context, geofenceID string, mode domain.DeliveryMode, vehicleType *string) (domain.Tariff, error)
	AgentTariff(ctx context.Context, geofenceID string) (domain.AgentTariff, error)

	// ActiveSurge returns the surge rule currently in force for the geofence,
	// or a not-found error when demand is normal.
	ActiveSurge(ctx context.Context, geofenceID string, now time.Time) (domain.SurgeRule, error)
}

// TaxRepository resolves tax percentages per business category and geofence.
type TaxRepository interface {
	FindRule(ctx context.Context, businessCategoryID string, geofenceID string) (domain.TaxRule, error)
}

// RewardRuleRepository resolves the loyalty and referral reward configuration.
type RewardRuleRepository interface {
	LoyaltyRule(ctx context.Context) (domain.LoyaltyRule, error)
	ReferralRule(ctx context.Context) (domain.ReferralRule, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type OrderListFilter struct {
	CustomerID string
	MerchantID string
	AgentID    string
	Status     []domain.OrderStatus
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

// CounterConfig customises increment behaviour and bounds for a counter.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}
