package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/repositories"
)

const (
	temporaryOrderIDPrefix = "tmp_"
	orderCounterName       = "orders"
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid input.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates the requested transition is not allowed
	// from the order's current status.
	ErrOrderInvalidState = errors.New("order: invalid state")
	// ErrOrderConflict indicates the order could not be updated due to
	// concurrent modifications.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUnavailable indicates the order store could not be reached.
	ErrOrderUnavailable = errors.New("order: unavailable")
	// ErrOrderAlreadyProcessed indicates the staged order was already promoted
	// or cancelled by a concurrent actor.
	ErrOrderAlreadyProcessed = errors.New("order: already processed")
	// ErrOrderPaymentFailed indicates the payment gateway rejected the
	// capture, verification or refund.
	ErrOrderPaymentFailed = errors.New("order: payment failed")
)

// orderStateTransitions maps each durable status to its allowed successors.
var orderStateTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:   {domain.OrderStatusOnGoing, domain.OrderStatusCancelled},
	domain.OrderStatusOnGoing:   {domain.OrderStatusCompleted, domain.OrderStatusCancelled},
	domain.OrderStatusCompleted: {},
	domain.OrderStatusCancelled: {},
}

func canTransition(from, to domain.OrderStatus) bool {
	for _, allowed := range orderStateTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderEventPublisher publishes order domain events for downstream consumers.
// Promotion-countdown events carry a NotBefore so the job transport can delay
// delivery until the cancellation window has elapsed.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	PreviousStatus string
	CurrentStatus  string
	ActorID        string
	OccurredAt     time.Time
	NotBefore      *time.Time
	Metadata       map[string]any
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders          repositories.OrderRepository
	ScheduledOrders repositories.ScheduledOrderRepository
	TemporaryOrders repositories.TemporaryOrderRepository
	Tasks           repositories.TaskRepository
	Carts           repositories.CartRepository
	Merchants       repositories.MerchantRepository
	Counters        repositories.CounterRepository
	Wallet          WalletService
	Payments        PaymentGateway
	Commission      CommissionCalculator
	Notifier        Notifier
	UnitOfWork      repositories.UnitOfWork
	Clock           func() time.Time
	IDGenerator     func() string
	Events          OrderEventPublisher
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	scheduled  repositories.ScheduledOrderRepository
	temporary  repositories.TemporaryOrderRepository
	tasks      repositories.TaskRepository
	carts      repositories.CartRepository
	merchants  repositories.MerchantRepository
	counters   repositories.CounterRepository
	wallet     WalletService
	payments   PaymentGateway
	commission CommissionCalculator
	notifier   Notifier
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	events     OrderEventPublisher
	logger     func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.TemporaryOrders == nil {
		return nil, errors.New("order service: temporary order repository is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("order service: cart repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	if deps.Wallet == nil {
		return nil, errors.New("order service: wallet service is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:     deps.Orders,
		scheduled:  deps.ScheduledOrders,
		temporary:  deps.TemporaryOrders,
		tasks:      deps.Tasks,
		carts:      deps.Carts,
		merchants:  deps.Merchants,
		counters:   deps.Counters,
		wallet:     deps.Wallet,
		payments:   deps.Payments,
		commission: deps.Commission,
		notifier:   deps.Notifier,
		unitOfWork: unit,
		clock:      func() time.Time { return clock().UTC() },
		newID:      idGen,
		events:     deps.Events,
		logger:     logger,
	}, nil
}

// ConfirmCartAndStage freezes the customer's cart into a temporary order and
// opens the cancellation countdown. Cash settles at handover, wallet debits
// immediately and online payment must be captured before anything is staged.
func (s *orderService) ConfirmCartAndStage(ctx context.Context, cmd ConfirmCartCommand) (StageResult, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return StageResult{}, fmt.Errorf("%w: customer id is required", ErrOrderInvalidInput)
	}

	cart, err := s.carts.FindByCustomer(ctx, customerID)
	if err != nil {
		return StageResult{}, s.mapRepositoryError(err)
	}
	if len(cart.Items) == 0 {
		return StageResult{}, fmt.Errorf("%w: cart must contain at least one item", ErrOrderInvalidInput)
	}

	amount := cart.BillDetail.GrandTotal()
	if amount <= 0 {
		return StageResult{}, fmt.Errorf("%w: cart total must be positive", ErrOrderInvalidInput)
	}

	now := s.clock()

	// The intent leg captures nothing and stages nothing, so it must not
	// consume an order number: the sequence only advances when an order is
	// actually staged.
	if cmd.PaymentMode == domain.PaymentModeOnline && cmd.Payment == nil {
		if s.payments == nil {
			return StageResult{}, fmt.Errorf("%w: online payment is not configured", ErrOrderInvalidInput)
		}
		intentID, err := s.payments.CreatePaymentIntent(ctx, amount, map[string]string{
			"customerId": customerID,
		})
		if err != nil {
			return StageResult{}, fmt.Errorf("%w: %v", ErrOrderPaymentFailed, err)
		}
		return StageResult{PaymentIntentID: &intentID}, nil
	}

	orderID, err := s.nextOrderID(ctx, now)
	if err != nil {
		return StageResult{}, err
	}

	temp := domain.TemporaryOrder{
		ID:            temporaryOrderIDPrefix + s.newID(),
		OrderID:       orderID,
		CustomerID:    customerID,
		MerchantID:    cloneStringPtr(cart.MerchantID),
		Items:         append([]domain.CartItem(nil), cart.Items...),
		OrderDetail:   orderDetailFromCart(cart.CartDetail),
		BillDetail:    cart.BillDetail,
		TotalAmount:   amount,
		Status:        domain.OrderStatusPending,
		PaymentMode:   cmd.PaymentMode,
		PaymentStatus: domain.PaymentStatusPending,
		StagedAt:      now,
		ExpiresAt:     now.Add(domain.TemporaryOrderTTL),
	}

	switch cmd.PaymentMode {
	case domain.PaymentModeCashOnDelivery:
		// Nothing captured upfront.
	case domain.PaymentModeFamtoCash:
		if _, err := s.wallet.Debit(ctx, WalletMovementCommand{
			CustomerID:  customerID,
			Amount:      amount,
			Category:    domain.TransactionTypeBill,
			OrderID:     &orderID,
			Description: fmt.Sprintf("Payment for order %s", orderID),
		}); err != nil {
			return StageResult{}, err
		}
		temp.PaymentStatus = domain.PaymentStatusCompleted
	case domain.PaymentModeOnline:
		if s.payments == nil {
			return StageResult{}, fmt.Errorf("%w: online payment is not configured", ErrOrderInvalidInput)
		}
		verified, err := s.payments.VerifyPayment(ctx, *cmd.Payment)
		if err != nil {
			return StageResult{}, fmt.Errorf("%w: %v", ErrOrderPaymentFailed, err)
		}
		if !verified {
			return StageResult{}, fmt.Errorf("%w: signature verification rejected", ErrOrderPaymentFailed)
		}
		temp.PaymentStatus = domain.PaymentStatusCompleted
		paymentID := cmd.Payment.PaymentID
		temp.PaymentID = &paymentID
	default:
		return StageResult{}, fmt.Errorf("%w: unknown payment mode %q", ErrOrderInvalidInput, cmd.PaymentMode)
	}

	if err := s.temporary.Insert(ctx, temp); err != nil {
		// The wallet debit or online capture already happened; undo it
		// before reporting the staging failure. A failed reversal must
		// surface so the captured amount can be reconciled.
		if revErr := s.reverseCapture(ctx, temp); revErr != nil {
			s.logger(ctx, "order.payment.reconciliation.required", map[string]any{
				"customer": customerID,
				"order":    orderID,
				"amount":   amount,
				"mode":     string(cmd.PaymentMode),
				"error":    revErr.Error(),
			})
			return StageResult{}, fmt.Errorf("%w: reversal after failed staging: %v", ErrOrderPaymentFailed, revErr)
		}
		return StageResult{}, s.mapRepositoryError(err)
	}

	if err := s.carts.Delete(ctx, customerID); err != nil && !isRepoNotFound(err) {
		s.logger(ctx, "order.cart.clear.failed", map[string]any{
			"customer": customerID,
			"order":    orderID,
			"error":    err.Error(),
		})
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          "order.promotion.due",
		OrderID:       orderID,
		CurrentStatus: string(domain.OrderStatusPending),
		ActorID:       customerID,
		OccurredAt:    now,
		NotBefore:     &temp.ExpiresAt,
		Metadata:      map[string]any{"temporaryOrderId": temp.ID},
	})
	s.notify(ctx, customerID, "order.staged", map[string]any{
		"orderId":          orderID,
		"countdownSeconds": int(domain.TemporaryOrderTTL.Seconds()),
	}, "customer")

	return StageResult{
		TemporaryOrderID: temp.ID,
		OrderID:          orderID,
		CountdownSeconds: int(domain.TemporaryOrderTTL.Seconds()),
	}, nil
}

// Promote converts a staged order into its durable form once the countdown
// has elapsed. Exactly one of Promote and CancelBeforeCreation wins; the
// loser observes ErrOrderAlreadyProcessed.
func (s *orderService) Promote(ctx context.Context, temporaryOrderID string) (Order, error) {
	temporaryOrderID = strings.TrimSpace(temporaryOrderID)
	if temporaryOrderID == "" {
		return Order{}, fmt.Errorf("%w: temporary order id is required", ErrOrderInvalidInput)
	}

	temp, err := s.temporary.Claim(ctx, temporaryOrderID)
	if err != nil {
		if isRepoNotFound(err) {
			return Order{}, fmt.Errorf("%w: %s", ErrOrderAlreadyProcessed, temporaryOrderID)
		}
		return Order{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	order := domain.Order{
		ID:            temp.OrderID,
		CustomerID:    temp.CustomerID,
		MerchantID:    temp.MerchantID,
		Items:         temp.Items,
		OrderDetail:   temp.OrderDetail,
		BillDetail:    temp.BillDetail,
		TotalAmount:   temp.TotalAmount,
		Status:        domain.OrderStatusPending,
		PaymentMode:   temp.PaymentMode,
		PaymentStatus: temp.PaymentStatus,
		PaymentID:     temp.PaymentID,
		Stepper:       domain.OrderStepper{Created: &now},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.unitOfWork.RunInTx(ctx, func(ctx context.Context) error {
		return s.orders.Insert(ctx, order)
	}); err != nil {
		// Put the staged snapshot back so a later Promote or Cancel can
		// still win it; the claim must never strand a captured payment.
		s.restoreStaged(ctx, temp, "order.promote.restore.failed")
		return Order{}, s.mapRepositoryError(err)
	}

	if temp.OrderDetail.DeliveryOption == domain.DeliveryOptionScheduled && temp.OrderDetail.Schedule != nil && s.scheduled != nil {
		schedule := temp.OrderDetail.Schedule
		next := firstDeliveryAt(schedule, now)
		scheduledOrder := domain.ScheduledOrder{
			Order:          order,
			StartDate:      schedule.StartDate,
			EndDate:        schedule.EndDate,
			Time:           schedule.Time,
			NumOfDays:      schedule.NumOfDays,
			NextDeliveryAt: &next,
		}
		if err := s.scheduled.Insert(ctx, scheduledOrder); err != nil {
			s.logger(ctx, "order.scheduled.projection.failed", map[string]any{
				"order": order.ID,
				"error": err.Error(),
			})
		}
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          "order.created",
		OrderID:       order.ID,
		CurrentStatus: string(order.Status),
		OccurredAt:    now,
	})
	if order.MerchantID != nil {
		s.notify(ctx, *order.MerchantID, "order.awaiting.confirmation", map[string]any{"orderId": order.ID}, "merchant")
	}
	return order, nil
}

// CancelBeforeCreation cancels a staged order inside the countdown window and
// reverses any captured payment. Cash stages nothing so nothing is returned;
// wallet payments are credited back and online payments refunded through the
// gateway. A failed refund restores the staged order so money is never lost.
func (s *orderService) CancelBeforeCreation(ctx context.Context, temporaryOrderID string) error {
	temporaryOrderID = strings.TrimSpace(temporaryOrderID)
	if temporaryOrderID == "" {
		return fmt.Errorf("%w: temporary order id is required", ErrOrderInvalidInput)
	}

	temp, err := s.temporary.Claim(ctx, temporaryOrderID)
	if err != nil {
		if isRepoNotFound(err) {
			return fmt.Errorf("%w: %s", ErrOrderAlreadyProcessed, temporaryOrderID)
		}
		return s.mapRepositoryError(err)
	}

	switch temp.PaymentMode {
	case domain.PaymentModeCashOnDelivery:
		// Nothing was captured.
	case domain.PaymentModeFamtoCash:
		if err := s.creditWallet(ctx, temp.CustomerID, cancellationRefund(temp), temp.OrderID, fmt.Sprintf("Refund for cancelled order %s", temp.OrderID)); err != nil {
			s.restoreStaged(ctx, temp, "order.cancel.restore.failed")
			return fmt.Errorf("%w: refund: %v", ErrOrderPaymentFailed, err)
		}
	case domain.PaymentModeOnline:
		if temp.PaymentID == nil || s.payments == nil {
			break
		}
		result, err := s.payments.Refund(ctx, *temp.PaymentID, cancellationRefund(temp))
		if err != nil || !result.Success {
			s.restoreStaged(ctx, temp, "order.cancel.restore.failed")
			if err == nil {
				err = errors.New("gateway reported failure")
			}
			return fmt.Errorf("%w: refund: %v", ErrOrderPaymentFailed, err)
		}
	}

	s.publishEvent(ctx, OrderEvent{
		Type:       "order.cancelled.before.creation",
		OrderID:    temp.OrderID,
		ActorID:    temp.CustomerID,
		OccurredAt: s.clock(),
	})
	s.notify(ctx, temp.CustomerID, "order.cancelled", map[string]any{"orderId": temp.OrderID}, "customer")
	return nil
}

// MerchantConfirm moves a pending order to On-going, records the commission
// split and creates the agent task.
func (s *orderService) MerchantConfirm(ctx context.Context, cmd MerchantDecisionCommand) (Order, error) {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	if !canTransition(order.Status, domain.OrderStatusOnGoing) {
		return Order{}, fmt.Errorf("%w: cannot confirm order in status %s", ErrOrderInvalidState, order.Status)
	}
	if order.MerchantID == nil || strings.TrimSpace(cmd.ActorID) == "" || *order.MerchantID != strings.TrimSpace(cmd.ActorID) {
		return Order{}, fmt.Errorf("%w: order does not belong to merchant", ErrOrderInvalidInput)
	}

	now := s.clock()
	previous := order.Status
	expected := order.UpdatedAt
	order.Status = domain.OrderStatusOnGoing
	order.Stepper.Accepted = &now
	order.UpdatedAt = now

	if s.commission != nil && s.merchants != nil {
		merchant, err := s.merchants.FindByID(ctx, *order.MerchantID)
		if err == nil {
			detail, calcErr := s.commission.Calculate(ctx, order, merchant)
			if calcErr == nil {
				order.CommissionDetail = &detail
			} else {
				s.logger(ctx, "order.commission.failed", map[string]any{
					"order": order.ID,
					"error": calcErr.Error(),
				})
			}
		}
	}

	if err := s.orders.Update(ctx, order, updateGuard(expected)); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if s.tasks != nil {
		task := domain.Task{
			ID:      "tsk_" + s.newID(),
			OrderID: order.ID,
			Status:  domain.TaskStatusUnassigned,
			PickupDetail: domain.TaskLeg{
				Address:  order.OrderDetail.PickupAddress,
				Location: order.OrderDetail.PickupLocation,
			},
			DeliveryDetail: domain.TaskLeg{
				Address:  order.OrderDetail.DeliveryAddress,
				Location: order.OrderDetail.DeliveryLocation,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.tasks.Insert(ctx, task); err != nil {
			s.logger(ctx, "order.task.create.failed", map[string]any{
				"order": order.ID,
				"error": err.Error(),
			})
		}
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           "order.confirmed",
		OrderID:        order.ID,
		PreviousStatus: string(previous),
		CurrentStatus:  string(order.Status),
		ActorID:        cmd.ActorID,
		OccurredAt:     now,
	})
	s.notify(ctx, order.CustomerID, "order.confirmed", map[string]any{"orderId": order.ID}, "customer")
	return order, nil
}

// MerchantReject cancels a pending order on the merchant's behalf.
func (s *orderService) MerchantReject(ctx context.Context, cmd MerchantDecisionCommand) (Order, error) {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	if order.MerchantID == nil || *order.MerchantID != strings.TrimSpace(cmd.ActorID) {
		return Order{}, fmt.Errorf("%w: order does not belong to merchant", ErrOrderInvalidInput)
	}
	return s.reject(ctx, order, cmd)
}

// AdminReject cancels a pending order on behalf of platform staff.
func (s *orderService) AdminReject(ctx context.Context, cmd MerchantDecisionCommand) (Order, error) {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	return s.reject(ctx, order, cmd)
}

// GetOrder loads one durable order.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return s.loadOrder(ctx, orderID)
}

// ListOrders pages durable orders matching the filter.
func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// RecoverExpired promotes staged orders whose countdown elapsed while no
// promotion job ran, e.g. across a process restart. Races with live jobs are
// harmless: the claim decides the winner.
func (s *orderService) RecoverExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}
	expired, err := s.temporary.ListExpired(ctx, s.clock(), limit)
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}

	promoted := 0
	for _, temp := range expired {
		if _, err := s.Promote(ctx, temp.ID); err != nil {
			if errors.Is(err, ErrOrderAlreadyProcessed) {
				continue
			}
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

// --- internals --------------------------------------------------------------

func (s *orderService) reject(ctx context.Context, order domain.Order, cmd MerchantDecisionCommand) (Order, error) {
	if !canTransition(order.Status, domain.OrderStatusCancelled) {
		return Order{}, fmt.Errorf("%w: cannot reject order in status %s", ErrOrderInvalidState, order.Status)
	}

	now := s.clock()
	previous := order.Status
	expected := order.UpdatedAt
	order.Status = domain.OrderStatusCancelled
	order.Stepper.Cancelled = &now
	order.UpdatedAt = now
	if reason := strings.TrimSpace(cmd.Reason); reason != "" {
		order.CancelReason = &reason
	}

	switch order.PaymentMode {
	case domain.PaymentModeFamtoCash:
		// A failed wallet credit aborts the rejection entirely: the order
		// stays pending rather than landing in Cancelled with the captured
		// amount unreturned.
		if err := s.creditWallet(ctx, order.CustomerID, order.TotalAmount, order.ID, fmt.Sprintf("Refund for rejected order %s", order.ID)); err != nil {
			return Order{}, fmt.Errorf("%w: refund: %v", ErrOrderPaymentFailed, err)
		}
		order.PaymentStatus = domain.PaymentStatusRefunded
	case domain.PaymentModeOnline:
		if order.PaymentID != nil && s.payments != nil {
			result, err := s.payments.Refund(ctx, *order.PaymentID, order.TotalAmount)
			if err != nil || !result.Success {
				if err == nil {
					err = errors.New("gateway reported failure")
				}
				return Order{}, fmt.Errorf("%w: refund: %v", ErrOrderPaymentFailed, err)
			}
			order.RefundID = &result.RefundID
			order.PaymentStatus = domain.PaymentStatusRefunded
		}
	}

	if err := s.orders.Update(ctx, order, updateGuard(expected)); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           "order.rejected",
		OrderID:        order.ID,
		PreviousStatus: string(previous),
		CurrentStatus:  string(order.Status),
		ActorID:        cmd.ActorID,
		OccurredAt:     now,
	})
	s.notify(ctx, order.CustomerID, "order.rejected", map[string]any{"orderId": order.ID}, "customer")
	return order, nil
}

func (s *orderService) loadOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) nextOrderID(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderCounterName, 1)
	if err != nil {
		return "", s.mapRepositoryError(err)
	}
	return fmt.Sprintf("FMT-%04d-%06d", now.Year(), seq), nil
}

// creditWallet is a compensation credit. Callers decide how a failure unwinds
// the surrounding flow; nothing is allowed to swallow it.
func (s *orderService) creditWallet(ctx context.Context, customerID string, amount float64, orderID, description string) error {
	if amount <= 0 {
		return nil
	}
	_, err := s.wallet.Credit(ctx, WalletMovementCommand{
		CustomerID:  customerID,
		Amount:      amount,
		Category:    domain.TransactionTypeRefund,
		OrderID:     &orderID,
		Description: description,
	})
	return err
}

// reverseCapture undoes whatever the staged order captured upfront: a wallet
// credit for Famto cash, a gateway refund for online payment.
func (s *orderService) reverseCapture(ctx context.Context, temp domain.TemporaryOrder) error {
	switch temp.PaymentMode {
	case domain.PaymentModeFamtoCash:
		return s.creditWallet(ctx, temp.CustomerID, temp.TotalAmount, temp.OrderID, "Reversal for failed order staging")
	case domain.PaymentModeOnline:
		if temp.PaymentID == nil || s.payments == nil {
			return nil
		}
		result, err := s.payments.Refund(ctx, *temp.PaymentID, temp.TotalAmount)
		if err != nil {
			return err
		}
		if !result.Success {
			return errors.New("gateway reported failure")
		}
	}
	return nil
}

// restoreStaged re-inserts a claimed temporary order after the follow-up work
// failed, so exactly one of promotion and cancellation still happens later.
func (s *orderService) restoreStaged(ctx context.Context, temp domain.TemporaryOrder, event string) {
	if err := s.temporary.Insert(ctx, temp); err != nil {
		s.logger(ctx, event, map[string]any{
			"temporaryOrder": temp.ID,
			"order":          temp.OrderID,
			"error":          err.Error(),
		})
	}
}

// updateGuard turns a loaded snapshot's update time into the optimistic
// precondition for the follow-up write. A zero time means unguarded.
func updateGuard(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func (s *orderService) notify(ctx context.Context, userID, event string, payload map[string]any, role string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, event, payload, role); err != nil {
		s.logger(ctx, "order.notify.failed", map[string]any{
			"user":  userID,
			"event": event,
			"error": err.Error(),
		})
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}
	return err
}

// cancellationRefund resolves how much of the captured amount returns to the
// customer. Scheduled orders return a single day's worth; the remaining days
// never started.
func cancellationRefund(temp domain.TemporaryOrder) float64 {
	amount := temp.TotalAmount
	if temp.OrderDetail.DeliveryOption == domain.DeliveryOptionScheduled &&
		temp.OrderDetail.Schedule != nil && temp.OrderDetail.Schedule.NumOfDays > 0 {
		return Round2(amount / float64(temp.OrderDetail.Schedule.NumOfDays))
	}
	return amount
}

func orderDetailFromCart(detail domain.CartDetail) domain.OrderDetail {
	return domain.OrderDetail{
		PickupLocation:   cloneLocation(detail.PickupLocation),
		PickupAddress:    cloneAddress(detail.PickupAddress),
		DeliveryLocation: cloneLocation(detail.DeliveryLocation),
		DeliveryAddress:  cloneAddress(detail.DeliveryAddress),
		DeliveryMode:     detail.DeliveryMode,
		DeliveryOption:   detail.DeliveryOption,
		Schedule:         cloneSchedule(detail.Schedule),
		Instructions:     detail.Instructions,
		VehicleType:      cloneStringPtr(detail.VehicleType),
		GeofenceID:       detail.GeofenceID,
		DistanceKm:       detail.DistanceKm,
		DurationMinutes:  detail.DurationMinutes,
	}
}

func cloneSchedule(schedule *domain.Schedule) *domain.Schedule {
	if schedule == nil {
		return nil
	}
	cloned := *schedule
	return &cloned
}

// noopUnitOfWork runs the callback without any transactional guarantees.
type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// firstDeliveryAt combines the schedule's first date with its time-of-day,
// skipping days that already passed when the order was promoted.
func firstDeliveryAt(schedule *domain.Schedule, now time.Time) time.Time {
	day := schedule.StartDate
	at := time.Date(day.Year(), day.Month(), day.Day(),
		schedule.Time.Hour(), schedule.Time.Minute(), 0, 0, time.UTC)
	for at.Before(now) && at.Before(schedule.EndDate.Add(24*time.Hour)) {
		at = at.Add(24 * time.Hour)
	}
	return at
}
