package services

import (
	"context"
	"io"
	"time"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination       = domain.Pagination
	Cart             = domain.Cart
	CartItem         = domain.CartItem
	CartDetail       = domain.CartDetail
	BillDetail       = domain.BillDetail
	Order            = domain.Order
	ScheduledOrder   = domain.ScheduledOrder
	TemporaryOrder   = domain.TemporaryOrder
	Task             = domain.Task
	Customer         = domain.Customer
	Agent            = domain.Agent
	Merchant         = domain.Merchant
	Promotion        = domain.Promotion
	Tariff           = domain.Tariff
	AgentTariff      = domain.AgentTariff
	TaxRule          = domain.TaxRule
	Location         = domain.Location
	Address          = domain.Address
	Schedule         = domain.Schedule
	DeliveryMode     = domain.DeliveryMode
	DeliveryOption   = domain.DeliveryOption
	PaymentMode      = domain.PaymentMode
	CommissionDetail = domain.CommissionDetail
	OrderListFilter  = repositories.OrderListFilter
)

// External collaborator contracts ------------------------------------------

// RouteEstimate is the road-network distance and travel time between two points.
type RouteEstimate struct {
	DistanceKm      float64
	DurationMinutes float64
}

// RouteResolver resolves road distance and duration between two coordinates.
type RouteResolver interface {
	RouteDistance(ctx context.Context, origin Location, destination Location) (RouteEstimate, error)
}

// GeofenceResolver maps a coordinate to the service geofence containing it.
type GeofenceResolver interface {
	ResolveGeofence(ctx context.Context, point Location) (string, error)
}

// PaymentVerification carries the gateway callback details proving a capture.
type PaymentVerification struct {
	IntentID  string
	PaymentID string
	Signature string
}

// RefundResult reports the outcome of a gateway refund call.
type RefundResult struct {
	Success  bool
	RefundID string
}

// PaymentGateway abstracts the payment provider used for online orders.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount float64, metadata map[string]string) (string, error)
	VerifyPayment(ctx context.Context, details PaymentVerification) (bool, error)
	Refund(ctx context.Context, paymentID string, amount float64) (RefundResult, error)
}

// BlobStore persists opaque files (delivery proof images) and returns URLs.
// ownerID scopes the object layout: the order ID for delivery proofs, the
// merchant ID for logos.
type BlobStore interface {
	StoreBlob(ctx context.Context, content io.Reader, category string, ownerID string, fileName string, contentType string) (string, error)
	DeleteBlob(ctx context.Context, url string) error
}

// Notifier dispatches push notifications. Delivery is best-effort; callers log
// failures and never roll back on them.
type Notifier interface {
	Notify(ctx context.Context, userID string, event string, payload map[string]any, role string) error
}

// CommissionCalculator computes the merchant/platform split at confirmation.
type CommissionCalculator interface {
	Calculate(ctx context.Context, order Order, merchant Merchant) (CommissionDetail, error)
}

// Cart aggregator ------------------------------------------------------------

// SetDeliveryTargetCommand establishes or resets the cart routing detail.
type SetDeliveryTargetCommand struct {
	CustomerID       string
	MerchantID       *string
	DeliveryMode     DeliveryMode
	DeliveryOption   DeliveryOption
	Schedule         *Schedule
	PickupLocation   *Location
	PickupAddress    *Address
	DeliveryLocation *Location
	DeliveryAddress  *Address
	Instructions     string
	VehicleType      *string
}

// UpsertCartItemCommand adds or updates one line in the cart.
type UpsertCartItemCommand struct {
	CustomerID        string
	MerchantID        *string
	Item              CartItem
	ExpectedUpdatedAt *time.Time
}

// RemoveCartItemCommand removes one line from the cart.
type RemoveCartItemCommand struct {
	CustomerID        string
	ItemID            string
	ExpectedUpdatedAt *time.Time
}

// ReplaceCartItemsCommand swaps the full item list in one call.
type ReplaceCartItemsCommand struct {
	CustomerID        string
	MerchantID        *string
	Items             []CartItem
	ExpectedUpdatedAt *time.Time
}

// ApplyTipAndPromoCommand attaches a tip and optionally redeems a promo code.
type ApplyTipAndPromoCommand struct {
	CustomerID        string
	Tip               float64
	PromoCode         *string
	ExpectedUpdatedAt *time.Time
}

// CartService owns the single mutable draft order per customer.
type CartService interface {
	SetDeliveryTarget(ctx context.Context, cmd SetDeliveryTargetCommand) (Cart, error)
	UpsertItem(ctx context.Context, cmd UpsertCartItemCommand) (Cart, error)
	RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (Cart, error)
	ReplaceItems(ctx context.Context, cmd ReplaceCartItemsCommand) (Cart, error)
	ApplyTipAndPromo(ctx context.Context, cmd ApplyTipAndPromoCommand) (Cart, error)
	GetCart(ctx context.Context, customerID string) (Cart, error)
	GetBill(ctx context.Context, customerID string) (BillDetail, error)
	Clear(ctx context.Context, customerID string) error
}

// Discount / promo engine ----------------------------------------------------

// PromoEvaluation reports the discount a valid promo code yields for a cart.
type PromoEvaluation struct {
	Promotion      Promotion
	DiscountAmount float64
}

// EvaluatePromoCommand carries the cart context a promo code is checked against.
type EvaluatePromoCommand struct {
	Code           string
	GeofenceID     string
	MerchantID     *string
	CartValue      float64
	DeliveryCharge float64
}

// PromotionService validates promo codes and evaluates merchant and product
// discounts for a cart.
type PromotionService interface {
	EvaluatePromoCode(ctx context.Context, cmd EvaluatePromoCommand) (PromoEvaluation, error)
	RedeemPromoCode(ctx context.Context, promotionID string) (Promotion, error)
	ReleasePromoCode(ctx context.Context, promotionID string) error
	ItemDiscount(ctx context.Context, merchantID string, geofenceID string, items []CartItem) (float64, error)
}

// Wallet ledger --------------------------------------------------------------

// WalletMovementCommand describes one wallet credit or debit.
type WalletMovementCommand struct {
	CustomerID  string
	Amount      float64
	Category    domain.TransactionType
	OrderID     *string
	Description string
}

// WalletService moves money on customer wallets. Every balance change appends
// a wallet transaction carrying the closing balance plus a ledger entry.
type WalletService interface {
	Credit(ctx context.Context, cmd WalletMovementCommand) (Customer, error)
	Debit(ctx context.Context, cmd WalletMovementCommand) (Customer, error)
	Balance(ctx context.Context, customerID string) (float64, error)
}

// Rewards --------------------------------------------------------------------

// AwardLoyaltyCommand evaluates loyalty earning for one completed order.
type AwardLoyaltyCommand struct {
	CustomerID string
	OrderID    string
	ItemTotal  float64
}

// RewardsService evaluates loyalty points and referral rewards after an order
// completes.
type RewardsService interface {
	AwardLoyaltyPoints(ctx context.Context, cmd AwardLoyaltyCommand) (int, error)
	ProcessReferralRewards(ctx context.Context, customerID string, itemTotal float64) (bool, error)
}

// Order lifecycle ------------------------------------------------------------

// ConfirmCartCommand confirms the customer's cart into a staged order.
type ConfirmCartCommand struct {
	CustomerID  string
	PaymentMode PaymentMode
	// Payment carries gateway verification details; required for online
	// payment, ignored otherwise.
	Payment *PaymentVerification
}

// StageResult reports the staged order and its cancellation window, or the
// payment intent awaiting verification for online payments.
type StageResult struct {
	TemporaryOrderID string
	OrderID          string
	CountdownSeconds int
	PaymentIntentID  *string
}

// MerchantDecisionCommand accepts or rejects a pending order.
type MerchantDecisionCommand struct {
	OrderID string
	ActorID string
	Reason  string
}

// OrderService drives the order lifecycle from cart confirmation through
// merchant decision.
type OrderService interface {
	ConfirmCartAndStage(ctx context.Context, cmd ConfirmCartCommand) (StageResult, error)
	Promote(ctx context.Context, temporaryOrderID string) (Order, error)
	CancelBeforeCreation(ctx context.Context, temporaryOrderID string) error
	MerchantConfirm(ctx context.Context, cmd MerchantDecisionCommand) (Order, error)
	MerchantReject(ctx context.Context, cmd MerchantDecisionCommand) (Order, error)
	AdminReject(ctx context.Context, cmd MerchantDecisionCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	// RecoverExpired promotes staged orders whose window elapsed while the
	// process was down. Returns the number promoted.
	RecoverExpired(ctx context.Context, limit int) (int, error)
}

// Task & earnings settlement -------------------------------------------------

// CompleteOrderCommand closes out a delivered order for an agent.
type CompleteOrderCommand struct {
	OrderID string
	AgentID string
}

// SettlementResult reports what the completion applied.
type SettlementResult struct {
	Order         Order
	AgentEarning  float64
	LoyaltyPoints int
	ReferralPaid  bool
	TimeTakenMin  float64
	DelayedByMin  float64
}

// DeliveryProofImage is one uploadable proof file.
type DeliveryProofImage struct {
	Content     io.Reader
	FileName    string
	ContentType string
}

// AttachDeliveryProofCommand adds agent notes, images and shop stops to an
// on-going order.
type AttachDeliveryProofCommand struct {
	OrderID    string
	AgentID    string
	Notes      string
	Images     []DeliveryProofImage
	ShopUpdate *domain.ShopUpdate
}

// SettlementService settles completed orders: agent earnings, counters,
// customer rewards and follow-up task promotion.
type SettlementService interface {
	CompleteOrder(ctx context.Context, cmd CompleteOrderCommand) (SettlementResult, error)
	AttachDeliveryProof(ctx context.Context, cmd AttachDeliveryProofCommand) (Order, error)
}

// SystemService aggregates platform health for liveness endpoints.
type SystemService interface {
	Health(ctx context.Context) (domain.SystemHealthReport, error)
}
