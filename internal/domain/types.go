package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// DeliveryMode enumerates the top-level families an order can belong to.
type DeliveryMode string

const (
	// DeliveryModeHomeDelivery delivers merchant products to a customer address.
	DeliveryModeHomeDelivery DeliveryMode = "Home Delivery"
	// DeliveryModeTakeAway stages merchant products for customer pickup.
	DeliveryModeTakeAway DeliveryMode = "Take Away"
	// DeliveryModePickAndDrop moves a customer parcel between two addresses.
	DeliveryModePickAndDrop DeliveryMode = "Pick and Drop"
	// DeliveryModeCustomOrder sends an agent shopping on the customer's behalf.
	DeliveryModeCustomOrder DeliveryMode = "Custom Order"
)

// DeliveryOption distinguishes immediate dispatch from a multi-day schedule.
type DeliveryOption string

const (
	// DeliveryOptionOnDemand dispatches the order immediately after confirmation.
	DeliveryOptionOnDemand DeliveryOption = "On-demand"
	// DeliveryOptionScheduled repeats delivery across a date window.
	DeliveryOptionScheduled DeliveryOption = "Scheduled"
)

// PaymentMode enumerates how a customer settles an order.
type PaymentMode string

const (
	// PaymentModeCashOnDelivery collects cash at handover; nothing is captured upfront.
	PaymentModeCashOnDelivery PaymentMode = "Cash-on-delivery"
	// PaymentModeFamtoCash debits the customer's platform wallet at confirmation.
	PaymentModeFamtoCash PaymentMode = "Famto-cash"
	// PaymentModeOnline captures the amount through the payment gateway before staging.
	PaymentModeOnline PaymentMode = "Online-payment"
)

// PaymentStatus tracks settlement progress on orders.
type PaymentStatus string

const (
	// PaymentStatusPending indicates money is still owed or uncaptured.
	PaymentStatusPending PaymentStatus = "Pending"
	// PaymentStatusCompleted indicates the order has been fully settled.
	PaymentStatusCompleted PaymentStatus = "Completed"
	// PaymentStatusRefunded indicates a captured amount was returned to the customer.
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

// OrderStatus enumerates valid lifecycle states for durable orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order awaits merchant confirmation.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusOnGoing indicates the merchant accepted and fulfilment is underway.
	OrderStatusOnGoing OrderStatus = "On-going"
	// OrderStatusCompleted indicates the agent delivered and settlement ran.
	OrderStatusCompleted OrderStatus = "Completed"
	// OrderStatusCancelled indicates the order was rejected or cancelled.
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Address captures the human-readable destination attached to a cart or order leg.
type Address struct {
	FullName  string
	Phone     string
	Flat      string
	Area      string
	Landmark  string
	AddressID *string
}

// Schedule describes the delivery window of a scheduled order.
type Schedule struct {
	StartDate time.Time
	EndDate   time.Time
	Time      time.Time
	NumOfDays int
}

// CartItem stores a single line entry within a cart. Merchant modes carry a
// product reference; Pick and Drop and Custom Order carry a free-form descriptor.
type CartItem struct {
	ItemID     string
	ProductID  *string
	ItemName   string
	Quantity   int
	Price      float64
	VariantID  *string
	WeightKg   float64
	TotalPrice float64
}

// CartDetail holds the routing and mode inputs the pricing run depends on.
type CartDetail struct {
	PickupLocation   *Location
	PickupAddress    *Address
	DeliveryLocation *Location
	DeliveryAddress  *Address
	DeliveryMode     DeliveryMode
	DeliveryOption   DeliveryOption
	Schedule         *Schedule
	Instructions     string
	VehicleType      *string
	GeofenceID       string
	DistanceKm       float64
	DurationMinutes  float64
}

// Cart aggregates the mutable draft order for a customer. At most one cart
// exists per customer at any time.
type Cart struct {
	ID         string
	CustomerID string
	MerchantID *string
	Items      []CartItem
	CartDetail CartDetail
	BillDetail BillDetail
	PromoCode  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderDetail is the immutable routing snapshot copied from the cart at staging.
type OrderDetail struct {
	PickupLocation   *Location
	PickupAddress    *Address
	DeliveryLocation *Location
	DeliveryAddress  *Address
	DeliveryMode     DeliveryMode
	DeliveryOption   DeliveryOption
	Schedule         *Schedule
	Instructions     string
	VehicleType      *string
	GeofenceID       string
	DistanceKm       float64
	DurationMinutes  float64
	DeliveryTime     *time.Time
}

// TemporaryOrder stages a confirmed cart for the cancellation window before it
// becomes durable. It lives for sixty seconds at most.
type TemporaryOrder struct {
	ID            string
	OrderID       string
	CustomerID    string
	MerchantID    *string
	Items         []CartItem
	OrderDetail   OrderDetail
	BillDetail    BillDetail
	TotalAmount   float64
	Status        OrderStatus
	PaymentMode   PaymentMode
	PaymentStatus PaymentStatus
	PaymentID     *string
	StagedAt      time.Time
	ExpiresAt     time.Time
}

// TemporaryOrderTTL bounds how long a staged order waits before promotion.
const TemporaryOrderTTL = 60 * time.Second

// OrderStepper records when each lifecycle milestone was reached.
type OrderStepper struct {
	Created   *time.Time
	Accepted  *time.Time
	Assigned  *time.Time
	PickedUp  *time.Time
	Completed *time.Time
	Cancelled *time.Time
}

// Rating stores a score and free-form comment left after completion.
type Rating struct {
	Score   int
	Comment string
	RatedAt time.Time
}

// OrderRating collects the mutual ratings between customer and agent.
type OrderRating struct {
	ToAgent    *Rating
	ToCustomer *Rating
}

// ShopUpdate records a stop an agent made while fulfilling a Custom Order.
type ShopUpdate struct {
	Location  Location
	Address   string
	UpdatedAt time.Time
}

// AgentAddedDetail holds proof-of-delivery material attached by the agent.
type AgentAddedDetail struct {
	Notes       string
	Images      []string
	ShopUpdates []ShopUpdate
}

// Order is the durable record materialised from a temporary order.
type Order struct {
	ID                 string
	CustomerID         string
	MerchantID         *string
	AgentID            *string
	Items              []CartItem
	OrderDetail        OrderDetail
	BillDetail         BillDetail
	TotalAmount        float64
	Status             OrderStatus
	PaymentMode        PaymentMode
	PaymentStatus      PaymentStatus
	PaymentID          *string
	RefundID           *string
	CommissionDetail   *CommissionDetail
	OrderRating        *OrderRating
	DetailAddedByAgent *AgentAddedDetail
	Stepper            OrderStepper
	CancelReason       *string
	TimeTakenMinutes   *float64
	DelayedByMinutes   *float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ScheduledOrder is the durable form of a multi-day scheduled commitment. Each
// elapsed day consumes one delivery at DeliveryChargePerDay.
type ScheduledOrder struct {
	Order
	StartDate      time.Time
	EndDate        time.Time
	Time           time.Time
	NumOfDays      int
	DaysFulfilled  int
	NextDeliveryAt *time.Time
}

// TaskLegStatus tracks progress of a single pickup or delivery leg.
type TaskLegStatus string

const (
	// TaskLegAccepted indicates the agent acknowledged the leg.
	TaskLegAccepted TaskLegStatus = "Accepted"
	// TaskLegStarted indicates the agent is actively driving the leg.
	TaskLegStarted TaskLegStatus = "Started"
	// TaskLegCompleted indicates the leg finished.
	TaskLegCompleted TaskLegStatus = "Completed"
)

// TaskStatus tracks agent assignment for the task as a whole.
type TaskStatus string

const (
	// TaskStatusUnassigned indicates no agent has been matched yet.
	TaskStatusUnassigned TaskStatus = "Unassigned"
	// TaskStatusAssigned indicates an agent owns the task.
	TaskStatusAssigned TaskStatus = "Assigned"
	// TaskStatusCompleted indicates both legs finished.
	TaskStatusCompleted TaskStatus = "Completed"
)

// TaskLeg describes one half (pickup or delivery) of a task.
type TaskLeg struct {
	Status    TaskLegStatus
	Address   *Address
	Location  *Location
	StartedAt *time.Time
	EndedAt   *time.Time
}

// Task is the unit of agent work created when a merchant confirms an order.
type Task struct {
	ID             string
	OrderID        string
	AgentID        *string
	Status         TaskStatus
	PickupDetail   TaskLeg
	DeliveryDetail TaskLeg
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WalletTransactionType marks the direction of a wallet movement.
type WalletTransactionType string

const (
	// WalletCredit adds money to the wallet.
	WalletCredit WalletTransactionType = "Credit"
	// WalletDebit removes money from the wallet.
	WalletDebit WalletTransactionType = "Debit"
)

// WalletTransaction is one append-only entry of the customer wallet ledger.
// ClosingBalance captures the balance immediately after the movement applied.
type WalletTransaction struct {
	ID             string
	Amount         float64
	Type           WalletTransactionType
	ClosingBalance float64
	OrderID        *string
	Description    string
	OccurredAt     time.Time
}

// TransactionType categorises high-level ledger entries.
type TransactionType string

const (
	// TransactionTypeBill records a payment against an order.
	TransactionTypeBill TransactionType = "Bill"
	// TransactionTypeRefund records money returned after a cancellation.
	TransactionTypeRefund TransactionType = "Refund"
	// TransactionTypeReferral records a referral reward credit.
	TransactionTypeReferral TransactionType = "Referral"
)

// TransactionEntry is one append-only entry of the high-level customer ledger.
type TransactionEntry struct {
	Type       TransactionType
	Direction  WalletTransactionType
	Amount     float64
	OccurredAt time.Time
}

// LoyaltyPointEntry records points earned from one qualifying order.
type LoyaltyPointEntry struct {
	Points   int
	OrderID  string
	EarnedAt time.Time
}

// LoyaltyDetail carries the three loyalty counters plus the earning history.
// The counters move in lockstep with every history append.
type LoyaltyDetail struct {
	EarnedToday       int
	LeftForRedemption int
	TotalEarned       int
	Details           []LoyaltyPointEntry
}

// ReferralDetail links a customer to their referrer. Processed flips to true
// exactly once, after the first qualifying completed order.
type ReferralDetail struct {
	ReferrerID string
	Processed  bool
}

// SubscriptionDetail tracks a customer's active delivery subscription.
type SubscriptionDetail struct {
	PlanID     string
	OrderLimit int
	OrdersUsed int
	ExpiresAt  time.Time
}

// Customer is the wallet-bearing party placing orders.
type Customer struct {
	ID                 string
	FullName           string
	Email              string
	Phone              string
	GeofenceID         string
	RegisteredAt       time.Time
	WalletBalance      float64
	WalletTransactions []WalletTransaction
	Transactions       []TransactionEntry
	LoyaltyDetail      LoyaltyDetail
	ReferralDetail     *ReferralDetail
	Subscription       *SubscriptionDetail
	UpdatedAt          time.Time
}

// MerchantCommission configures the platform's cut of a merchant order.
type MerchantCommission struct {
	CommissionType  DiscountType
	CommissionValue float64
}

// Merchant is the selling party for Home Delivery and Take Away orders.
type Merchant struct {
	ID                 string
	Name               string
	Phone              string
	GeofenceID         string
	BusinessCategoryID string
	Status             bool
	ServingModes       []DeliveryMode
	ServingOptions     []DeliveryOption
	Commission         *MerchantCommission
	UpdatedAt          time.Time
}

// AgentAppDetail carries the running "today" counters for an agent.
type AgentAppDetail struct {
	Orders          int
	CancelledOrders int
	TotalDistanceKm float64
	TotalEarning    float64
	LoginDuration   time.Duration
	PendingOrders   int
}

// AgentOrderEarning is one per-order earnings record inside a day history entry.
type AgentOrderEarning struct {
	OrderID     string
	DistanceKm  float64
	Earning     float64
	CompletedAt time.Time
}

// AgentDayHistory is the daily snapshot appended at rollover. Exactly one entry
// exists per agent per calendar day.
type AgentDayHistory struct {
	Date           time.Time
	PaymentSettled bool
	Detail         AgentAppDetail
	OrderEarnings  []AgentOrderEarning
}

// Agent is a delivery worker scoped to a geofence.
type Agent struct {
	ID               string
	FullName         string
	Phone            string
	GeofenceID       string
	VehicleType      string
	TaskCompleted    int
	AppDetail        AgentAppDetail
	AppDetailHistory []AgentDayHistory
	UpdatedAt        time.Time
}

// PromotionAppliedOn selects which base amount a promo code discounts.
type PromotionAppliedOn string

const (
	// PromotionOnCartValue discounts the item total.
	PromotionOnCartValue PromotionAppliedOn = "Cart-value"
	// PromotionOnDeliveryCharge discounts the delivery charge.
	PromotionOnDeliveryCharge PromotionAppliedOn = "Delivery-charge"
)

// PromotionType selects flat or percentage discounting.
type PromotionType string

const (
	// PromotionTypeFlat subtracts a fixed amount.
	PromotionTypeFlat PromotionType = "Flat-discount"
	// PromotionTypePercentage subtracts a percentage capped by MaxDiscountValue.
	PromotionTypePercentage PromotionType = "Percentage-discount"
)

// Promotion describes a redeemable promo code scoped to a geofence.
type Promotion struct {
	ID               string
	Code             string
	Description      string
	Status           bool
	PromoType        PromotionType
	Discount         float64
	MaxDiscountValue float64
	MinOrderAmount   float64
	MaxAllowedUsers  int
	NoOfUserUsed     int
	AppliedOn        PromotionAppliedOn
	MerchantID       *string
	GeofenceID       string
	FromDate         time.Time
	ToDate           time.Time
	ImageURL         string
}

// DiscountType selects flat or percentage merchant/product discounting.
type DiscountType string

const (
	// DiscountTypeFlat subtracts a fixed amount per item.
	DiscountTypeFlat DiscountType = "Flat-discount"
	// DiscountTypePercentage subtracts a percentage capped by MaxDiscountValue.
	DiscountTypePercentage DiscountType = "Percentage-discount"
)

// MerchantDiscount applies storewide when the cart item total clears the
// MaxCheckoutValue threshold and no product discount already took the line.
type MerchantDiscount struct {
	ID               string
	MerchantID       string
	DiscountType     DiscountType
	DiscountValue    float64
	MaxDiscountValue float64
	MaxCheckoutValue float64
	ValidFrom        time.Time
	ValidTo          time.Time
	Status           bool
	GeofenceID       string
}

// ProductDiscount applies to specific products and wins over merchant discounts.
type ProductDiscount struct {
	ID               string
	MerchantID       string
	ProductIDs       []string
	DiscountType     DiscountType
	DiscountValue    float64
	MaxDiscountValue float64
	ValidFrom        time.Time
	ValidTo          time.Time
	Status           bool
	GeofenceID       string
}

// LoyaltyRule configures point earning for qualifying orders.
type LoyaltyRule struct {
	Status                   bool
	EarningCriteriaRupee     float64
	EarningCriteriaPoint     int
	MinOrderAmountForEarning float64
	MaxEarningPointPerOrder  int
}

// ReferralRule configures the one-time two-party referral reward.
type ReferralRule struct {
	Status             bool
	ReferralType       DiscountType
	ReferrerDiscount   float64
	RefereeDiscount    float64
	ReferrerMaxAmount  float64
	RefereeMaxAmount   float64
	MinOrderAmount     float64
	RegistrationWindow time.Duration
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}
