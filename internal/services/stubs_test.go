package services

import (
	"context"
	"io"
	"time"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/repositories"
)

// repoError is the categorised persistence failure used across the service tests.
type repoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e repoError) Error() string       { return e.msg }
func (e repoError) IsNotFound() bool    { return e.notFound }
func (e repoError) IsConflict() bool    { return e.conflict }
func (e repoError) IsUnavailable() bool { return e.unavailable }

var _ repositories.RepositoryError = repoError{}

func notFoundErr(msg string) error    { return repoError{msg: msg, notFound: true} }
func conflictErr(msg string) error    { return repoError{msg: msg, conflict: true} }
func unavailableErr(msg string) error { return repoError{msg: msg, unavailable: true} }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequenceIDs(ids ...string) func() string {
	i := 0
	return func() string {
		if i >= len(ids) {
			return "overflow"
		}
		id := ids[i]
		i++
		return id
	}
}

// Repositories ---------------------------------------------------------------

type stubCartRepo struct {
	upsertFunc func(ctx context.Context, cart domain.Cart, expected *time.Time) (domain.Cart, error)
	findFunc   func(ctx context.Context, customerID string) (domain.Cart, error)
	deleteFunc func(ctx context.Context, customerID string) error
}

func (s *stubCartRepo) Upsert(ctx context.Context, cart domain.Cart, expected *time.Time) (domain.Cart, error) {
	if s.upsertFunc == nil {
		return cart, nil
	}
	return s.upsertFunc(ctx, cart, expected)
}

func (s *stubCartRepo) FindByCustomer(ctx context.Context, customerID string) (domain.Cart, error) {
	if s.findFunc == nil {
		return domain.Cart{}, notFoundErr("cart missing")
	}
	return s.findFunc(ctx, customerID)
}

func (s *stubCartRepo) Delete(ctx context.Context, customerID string) error {
	if s.deleteFunc == nil {
		return nil
	}
	return s.deleteFunc(ctx, customerID)
}

var _ repositories.CartRepository = (*stubCartRepo)(nil)

type stubTemporaryOrderRepo struct {
	insertFunc      func(ctx context.Context, order domain.TemporaryOrder) error
	findFunc        func(ctx context.Context, temporaryOrderID string) (domain.TemporaryOrder, error)
	claimFunc       func(ctx context.Context, temporaryOrderID string) (domain.TemporaryOrder, error)
	listExpiredFunc func(ctx context.Context, cutoff time.Time, limit int) ([]domain.TemporaryOrder, error)
}

func (s *stubTemporaryOrderRepo) Insert(ctx context.Context, order domain.TemporaryOrder) error {
	if s.insertFunc == nil {
		return nil
	}
	return s.insertFunc(ctx, order)
}

func (s *stubTemporaryOrderRepo) FindByID(ctx context.Context, temporaryOrderID string) (domain.TemporaryOrder, error) {
	if s.findFunc == nil {
		return domain.TemporaryOrder{}, notFoundErr("temporary order missing")
	}
	return s.findFunc(ctx, temporaryOrderID)
}

func (s *stubTemporaryOrderRepo) Claim(ctx context.Context, temporaryOrderID string) (domain.TemporaryOrder, error) {
	if s.claimFunc == nil {
		return domain.TemporaryOrder{}, notFoundErr("temporary order missing")
	}
	return s.claimFunc(ctx, temporaryOrderID)
}

func (s *stubTemporaryOrderRepo) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]domain.TemporaryOrder, error) {
	if s.listExpiredFunc == nil {
		return nil, nil
	}
	return s.listExpiredFunc(ctx, cutoff, limit)
}

var _ repositories.TemporaryOrderRepository = (*stubTemporaryOrderRepo)(nil)

type stubOrderRepo struct {
	insertFunc func(ctx context.Context, order domain.Order) error
	updateFunc func(ctx context.Context, order domain.Order, expected *time.Time) error
	findFunc   func(ctx context.Context, orderID string) (domain.Order, error)
	listFunc   func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFunc == nil {
		return nil
	}
	return s.insertFunc(ctx, order)
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order, expected *time.Time) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, order, expected)
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFunc == nil {
		return domain.Order{}, notFoundErr("order missing")
	}
	return s.findFunc(ctx, orderID)
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.Order]{}, nil
	}
	return s.listFunc(ctx, filter)
}

var _ repositories.OrderRepository = (*stubOrderRepo)(nil)

type stubScheduledOrderRepo struct {
	insertFunc func(ctx context.Context, order domain.ScheduledOrder) error
	updateFunc func(ctx context.Context, order domain.ScheduledOrder) error
	findFunc   func(ctx context.Context, orderID string) (domain.ScheduledOrder, error)
}

func (s *stubScheduledOrderRepo) Insert(ctx context.Context, order domain.ScheduledOrder) error {
	if s.insertFunc == nil {
		return nil
	}
	return s.insertFunc(ctx, order)
}

func (s *stubScheduledOrderRepo) Update(ctx context.Context, order domain.ScheduledOrder) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, order)
}

func (s *stubScheduledOrderRepo) FindByID(ctx context.Context, orderID string) (domain.ScheduledOrder, error) {
	if s.findFunc == nil {
		return domain.ScheduledOrder{}, notFoundErr("scheduled order missing")
	}
	return s.findFunc(ctx, orderID)
}

var _ repositories.ScheduledOrderRepository = (*stubScheduledOrderRepo)(nil)

type stubTaskRepo struct {
	insertFunc      func(ctx context.Context, task domain.Task) error
	updateFunc      func(ctx context.Context, task domain.Task) error
	findFunc        func(ctx context.Context, taskID string) (domain.Task, error)
	findByOrderFunc func(ctx context.Context, orderID string) (domain.Task, error)
	nextQueuedFunc  func(ctx context.Context, agentID string) (domain.Task, error)
}

func (s *stubTaskRepo) Insert(ctx context.Context, task domain.Task) error {
	if s.insertFunc == nil {
		return nil
	}
	return s.insertFunc(ctx, task)
}

func (s *stubTaskRepo) Update(ctx context.Context, task domain.Task) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, task)
}

func (s *stubTaskRepo) FindByID(ctx context.Context, taskID string) (domain.Task, error) {
	if s.findFunc == nil {
		return domain.Task{}, notFoundErr("task missing")
	}
	return s.findFunc(ctx, taskID)
}

func (s *stubTaskRepo) FindByOrder(ctx context.Context, orderID string) (domain.Task, error) {
	if s.findByOrderFunc == nil {
		return domain.Task{}, notFoundErr("task missing")
	}
	return s.findByOrderFunc(ctx, orderID)
}

func (s *stubTaskRepo) NextQueued(ctx context.Context, agentID string) (domain.Task, error) {
	if s.nextQueuedFunc == nil {
		return domain.Task{}, notFoundErr("no queued task")
	}
	return s.nextQueuedFunc(ctx, agentID)
}

var _ repositories.TaskRepository = (*stubTaskRepo)(nil)

type stubCustomerRepo struct {
	findFunc         func(ctx context.Context, customerID string) (domain.Customer, error)
	updateFunc       func(ctx context.Context, customer domain.Customer) error
	walletFunc       func(ctx context.Context, customerID string, movement repositories.WalletMovement) (domain.Customer, error)
	loyaltyFunc      func(ctx context.Context, customerID string, points int, entry domain.LoyaltyPointEntry) (domain.Customer, error)
	referralFunc     func(ctx context.Context, referrerID string, referrerMovement repositories.WalletMovement, refereeID string, refereeMovement repositories.WalletMovement) error
	subscriptionFunc func(ctx context.Context, customerID string, now time.Time) error
}

func (s *stubCustomerRepo) FindByID(ctx context.Context, customerID string) (domain.Customer, error) {
	if s.findFunc == nil {
		return domain.Customer{ID: customerID}, nil
	}
	return s.findFunc(ctx, customerID)
}

func (s *stubCustomerRepo) Update(ctx context.Context, customer domain.Customer) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, customer)
}

func (s *stubCustomerRepo) ApplyWalletMovement(ctx context.Context, customerID string, movement repositories.WalletMovement) (domain.Customer, error) {
	if s.walletFunc == nil {
		return domain.Customer{ID: customerID}, nil
	}
	return s.walletFunc(ctx, customerID, movement)
}

func (s *stubCustomerRepo) ApplyLoyalty(ctx context.Context, customerID string, points int, entry domain.LoyaltyPointEntry) (domain.Customer, error) {
	if s.loyaltyFunc == nil {
		return domain.Customer{ID: customerID}, nil
	}
	return s.loyaltyFunc(ctx, customerID, points, entry)
}

func (s *stubCustomerRepo) CreditReferral(ctx context.Context, referrerID string, referrerMovement repositories.WalletMovement, refereeID string, refereeMovement repositories.WalletMovement) error {
	if s.referralFunc == nil {
		return nil
	}
	return s.referralFunc(ctx, referrerID, referrerMovement, refereeID, refereeMovement)
}

func (s *stubCustomerRepo) AdvanceSubscriptionUsage(ctx context.Context, customerID string, now time.Time) error {
	if s.subscriptionFunc == nil {
		return nil
	}
	return s.subscriptionFunc(ctx, customerID, now)
}

var _ repositories.CustomerRepository = (*stubCustomerRepo)(nil)

type stubAgentRepo struct {
	findFunc   func(ctx context.Context, agentID string) (domain.Agent, error)
	updateFunc func(ctx context.Context, agent domain.Agent) error
	recordFunc func(ctx context.Context, agentID string, record repositories.AgentCompletionRecord) (domain.Agent, error)
}

func (s *stubAgentRepo) FindByID(ctx context.Context, agentID string) (domain.Agent, error) {
	if s.findFunc == nil {
		return domain.Agent{ID: agentID}, nil
	}
	return s.findFunc(ctx, agentID)
}

func (s *stubAgentRepo) Update(ctx context.Context, agent domain.Agent) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, agent)
}

func (s *stubAgentRepo) RecordCompletion(ctx context.Context, agentID string, record repositories.AgentCompletionRecord) (domain.Agent, error) {
	if s.recordFunc == nil {
		return domain.Agent{ID: agentID}, nil
	}
	return s.recordFunc(ctx, agentID, record)
}

var _ repositories.AgentRepository = (*stubAgentRepo)(nil)

type stubMerchantRepo struct {
	findFunc func(ctx context.Context, merchantID string) (domain.Merchant, error)
}

func (s *stubMerchantRepo) FindByID(ctx context.Context, merchantID string) (domain.Merchant, error) {
	if s.findFunc == nil {
		return domain.Merchant{ID: merchantID, Status: true}, nil
	}
	return s.findFunc(ctx, merchantID)
}

var _ repositories.MerchantRepository = (*stubMerchantRepo)(nil)

type stubPromotionRepo struct {
	findByCodeFunc func(ctx context.Context, code string, geofenceID string) (domain.Promotion, error)
	redeemFunc     func(ctx context.Context, promotionID string, now time.Time) (domain.Promotion, error)
	releaseFunc    func(ctx context.Context, promotionID string, now time.Time) error
}

func (s *stubPromotionRepo) FindByCode(ctx context.Context, code string, geofenceID string) (domain.Promotion, error) {
	if s.findByCodeFunc == nil {
		return domain.Promotion{}, notFoundErr("promotion missing")
	}
	return s.findByCodeFunc(ctx, code, geofenceID)
}

func (s *stubPromotionRepo) Redeem(ctx context.Context, promotionID string, now time.Time) (domain.Promotion, error) {
	if s.redeemFunc == nil {
		return domain.Promotion{ID: promotionID}, nil
	}
	return s.redeemFunc(ctx, promotionID, now)
}

func (s *stubPromotionRepo) ReleaseRedemption(ctx context.Context, promotionID string, now time.Time) error {
	if s.releaseFunc == nil {
		return nil
	}
	return s.releaseFunc(ctx, promotionID, now)
}

var _ repositories.PromotionRepository = (*stubPromotionRepo)(nil)

type stubDiscountRepo struct {
	merchantFunc func(ctx context.Context, merchantID string, now time.Time) (domain.MerchantDiscount, error)
	productFunc  func(ctx context.Context, merchantID string, productIDs []string, now time.Time) (map[string]domain.ProductDiscount, error)
}

func (s *stubDiscountRepo) ActiveMerchantDiscount(ctx context.Context, merchantID string, now time.Time) (domain.MerchantDiscount, error) {
	if s.merchantFunc == nil {
		return domain.MerchantDiscount{}, notFoundErr("no merchant discount")
	}
	return s.merchantFunc(ctx, merchantID, now)
}

func (s *stubDiscountRepo) ActiveProductDiscounts(ctx context.Context, merchantID string, productIDs []string, now time.Time) (map[string]domain.ProductDiscount, error) {
	if s.productFunc == nil {
		return nil, nil
	}
	return s.productFunc(ctx, merchantID, productIDs, now)
}

var _ repositories.DiscountRepository = (*stubDiscountRepo)(nil)

type stubTariffRepo struct {
	customerFunc func(ctx context.Context, geofenceID string, mode domain.DeliveryMode, vehicleType *string) (domain.Tariff, error)
	agentFunc    func(ctx context.Context, geofenceID string) (domain.AgentTariff, error)
	surgeFunc    func(ctx context.Context, geofenceID string, now time.Time) (domain.SurgeRule, error)
}

func (s *stubTariffRepo) CustomerTariff(ctx context.Context, geofenceID string, mode domain.DeliveryMode, vehicleType *string) (domain.Tariff, error) {
	if s.customerFunc == nil {
		return domain.Tariff{}, nil
	}
	return s.customerFunc(ctx, geofenceID, mode, vehicleType)
}

func (s *stubTariffRepo) AgentTariff(ctx context.Context, geofenceID string) (domain.AgentTariff, error) {
	if s.agentFunc == nil {
		return domain.AgentTariff{}, nil
	}
	return s.agentFunc(ctx, geofenceID)
}

func (s *stubTariffRepo) ActiveSurge(ctx context.Context, geofenceID string, now time.Time) (domain.SurgeRule, error) {
	if s.surgeFunc == nil {
		return domain.SurgeRule{}, notFoundErr("no surge")
	}
	return s.surgeFunc(ctx, geofenceID, now)
}

var _ repositories.TariffRepository = (*stubTariffRepo)(nil)

type stubTaxRepo struct {
	findRuleFunc func(ctx context.Context, businessCategoryID string, geofenceID string) (domain.TaxRule, error)
}

func (s *stubTaxRepo) FindRule(ctx context.Context, businessCategoryID string, geofenceID string) (domain.TaxRule, error) {
	if s.findRuleFunc == nil {
		return domain.TaxRule{}, notFoundErr("no tax rule")
	}
	return s.findRuleFunc(ctx, businessCategoryID, geofenceID)
}

var _ repositories.TaxRepository = (*stubTaxRepo)(nil)

type stubRewardRuleRepo struct {
	loyaltyFunc  func(ctx context.Context) (domain.LoyaltyRule, error)
	referralFunc func(ctx context.Context) (domain.ReferralRule, error)
}

func (s *stubRewardRuleRepo) LoyaltyRule(ctx context.Context) (domain.LoyaltyRule, error) {
	if s.loyaltyFunc == nil {
		return domain.LoyaltyRule{}, notFoundErr("no loyalty rule")
	}
	return s.loyaltyFunc(ctx)
}

func (s *stubRewardRuleRepo) ReferralRule(ctx context.Context) (domain.ReferralRule, error) {
	if s.referralFunc == nil {
		return domain.ReferralRule{}, notFoundErr("no referral rule")
	}
	return s.referralFunc(ctx)
}

var _ repositories.RewardRuleRepository = (*stubRewardRuleRepo)(nil)

type stubCounterRepo struct {
	nextFunc func(ctx context.Context, counterID string, step int64) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextFunc == nil {
		return 1, nil
	}
	return s.nextFunc(ctx, counterID, step)
}

func (s *stubCounterRepo) Configure(ctx context.Context, counterID string, cfg repositories.CounterConfig) error {
	return nil
}

var _ repositories.CounterRepository = (*stubCounterRepo)(nil)

// Service collaborators ------------------------------------------------------

type stubPromotionSvc struct {
	evaluateFunc     func(ctx context.Context, cmd EvaluatePromoCommand) (PromoEvaluation, error)
	redeemFunc       func(ctx context.Context, promotionID string) (Promotion, error)
	releaseFunc      func(ctx context.Context, promotionID string) error
	itemDiscountFunc func(ctx context.Context, merchantID string, geofenceID string, items []CartItem) (float64, error)
}

func (s *stubPromotionSvc) EvaluatePromoCode(ctx context.Context, cmd EvaluatePromoCommand) (PromoEvaluation, error) {
	if s.evaluateFunc == nil {
		return PromoEvaluation{}, nil
	}
	return s.evaluateFunc(ctx, cmd)
}

func (s *stubPromotionSvc) RedeemPromoCode(ctx context.Context, promotionID string) (Promotion, error) {
	if s.redeemFunc == nil {
		return Promotion{ID: promotionID}, nil
	}
	return s.redeemFunc(ctx, promotionID)
}

func (s *stubPromotionSvc) ReleasePromoCode(ctx context.Context, promotionID string) error {
	if s.releaseFunc == nil {
		return nil
	}
	return s.releaseFunc(ctx, promotionID)
}

func (s *stubPromotionSvc) ItemDiscount(ctx context.Context, merchantID string, geofenceID string, items []CartItem) (float64, error) {
	if s.itemDiscountFunc == nil {
		return 0, nil
	}
	return s.itemDiscountFunc(ctx, merchantID, geofenceID, items)
}

var _ PromotionService = (*stubPromotionSvc)(nil)

type stubWalletSvc struct {
	creditFunc  func(ctx context.Context, cmd WalletMovementCommand) (Customer, error)
	debitFunc   func(ctx context.Context, cmd WalletMovementCommand) (Customer, error)
	balanceFunc func(ctx context.Context, customerID string) (float64, error)
}

func (s *stubWalletSvc) Credit(ctx context.Context, cmd WalletMovementCommand) (Customer, error) {
	if s.creditFunc == nil {
		return Customer{ID: cmd.CustomerID}, nil
	}
	return s.creditFunc(ctx, cmd)
}

func (s *stubWalletSvc) Debit(ctx context.Context, cmd WalletMovementCommand) (Customer, error) {
	if s.debitFunc == nil {
		return Customer{ID: cmd.CustomerID}, nil
	}
	return s.debitFunc(ctx, cmd)
}

func (s *stubWalletSvc) Balance(ctx context.Context, customerID string) (float64, error) {
	if s.balanceFunc == nil {
		return 0, nil
	}
	return s.balanceFunc(ctx, customerID)
}

var _ WalletService = (*stubWalletSvc)(nil)

type stubRewardsSvc struct {
	loyaltyFunc  func(ctx context.Context, cmd AwardLoyaltyCommand) (int, error)
	referralFunc func(ctx context.Context, customerID string, itemTotal float64) (bool, error)
}

func (s *stubRewardsSvc) AwardLoyaltyPoints(ctx context.Context, cmd AwardLoyaltyCommand) (int, error) {
	if s.loyaltyFunc == nil {
		return 0, nil
	}
	return s.loyaltyFunc(ctx, cmd)
}

func (s *stubRewardsSvc) ProcessReferralRewards(ctx context.Context, customerID string, itemTotal float64) (bool, error) {
	if s.referralFunc == nil {
		return false, nil
	}
	return s.referralFunc(ctx, customerID, itemTotal)
}

var _ RewardsService = (*stubRewardsSvc)(nil)

type stubRouteResolver struct {
	routeFunc func(ctx context.Context, origin Location, destination Location) (RouteEstimate, error)
}

func (s *stubRouteResolver) RouteDistance(ctx context.Context, origin Location, destination Location) (RouteEstimate, error) {
	if s.routeFunc == nil {
		return RouteEstimate{}, nil
	}
	return s.routeFunc(ctx, origin, destination)
}

var _ RouteResolver = (*stubRouteResolver)(nil)

type stubGeofenceResolver struct {
	resolveFunc func(ctx context.Context, point Location) (string, error)
}

func (s *stubGeofenceResolver) ResolveGeofence(ctx context.Context, point Location) (string, error) {
	if s.resolveFunc == nil {
		return "geo-1", nil
	}
	return s.resolveFunc(ctx, point)
}

var _ GeofenceResolver = (*stubGeofenceResolver)(nil)

type stubPaymentGateway struct {
	createFunc func(ctx context.Context, amount float64, metadata map[string]string) (string, error)
	verifyFunc func(ctx context.Context, details PaymentVerification) (bool, error)
	refundFunc func(ctx context.Context, paymentID string, amount float64) (RefundResult, error)
}

func (s *stubPaymentGateway) CreatePaymentIntent(ctx context.Context, amount float64, metadata map[string]string) (string, error) {
	if s.createFunc == nil {
		return "pi_stub", nil
	}
	return s.createFunc(ctx, amount, metadata)
}

func (s *stubPaymentGateway) VerifyPayment(ctx context.Context, details PaymentVerification) (bool, error) {
	if s.verifyFunc == nil {
		return true, nil
	}
	return s.verifyFunc(ctx, details)
}

func (s *stubPaymentGateway) Refund(ctx context.Context, paymentID string, amount float64) (RefundResult, error) {
	if s.refundFunc == nil {
		return RefundResult{}, nil
	}
	return s.refundFunc(ctx, paymentID, amount)
}

var _ PaymentGateway = (*stubPaymentGateway)(nil)

type stubNotifier struct {
	notifyFunc func(ctx context.Context, userID string, event string, payload map[string]any, role string) error
}

func (s *stubNotifier) Notify(ctx context.Context, userID string, event string, payload map[string]any, role string) error {
	if s.notifyFunc == nil {
		return nil
	}
	return s.notifyFunc(ctx, userID, event, payload, role)
}

var _ Notifier = (*stubNotifier)(nil)

type stubBlobStore struct {
	storeFunc  func(ctx context.Context, content io.Reader, category string, ownerID string, fileName string, contentType string) (string, error)
	deleteFunc func(ctx context.Context, url string) error
}

func (s *stubBlobStore) StoreBlob(ctx context.Context, content io.Reader, category string, ownerID string, fileName string, contentType string) (string, error) {
	if s.storeFunc == nil {
		return "https://storage.example/" + ownerID + "/" + fileName, nil
	}
	return s.storeFunc(ctx, content, category, ownerID, fileName, contentType)
}

func (s *stubBlobStore) DeleteBlob(ctx context.Context, url string) error {
	if s.deleteFunc == nil {
		return nil
	}
	return s.deleteFunc(ctx, url)
}

var _ BlobStore = (*stubBlobStore)(nil)

type stubEventPublisher struct {
	events []OrderEvent
	err    error
}

func (s *stubEventPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

var _ OrderEventPublisher = (*stubEventPublisher)(nil)

type stubCommissionCalc struct {
	calcFunc func(ctx context.Context, order Order, merchant Merchant) (CommissionDetail, error)
}

func (s *stubCommissionCalc) Calculate(ctx context.Context, order Order, merchant Merchant) (CommissionDetail, error) {
	if s.calcFunc == nil {
		return CommissionDetail{}, nil
	}
	return s.calcFunc(ctx, order, merchant)
}

var _ CommissionCalculator = (*stubCommissionCalc)(nil)

type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ repositories.UnitOfWork = passthroughUnitOfWork{}
