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

const deliveryProofCategory = "delivery-proof"

var (
	// ErrSettlementInvalidInput indicates the caller supplied invalid input.
	ErrSettlementInvalidInput = errors.New("settlement: invalid input")
	// ErrSettlementNotFound indicates the order or agent does not exist.
	ErrSettlementNotFound = errors.New("settlement: not found")
	// ErrSettlementInvalidState indicates the order is not in a completable state.
	ErrSettlementInvalidState = errors.New("settlement: invalid state")
	// ErrSettlementAlreadyCompleted indicates a duplicate completion attempt.
	ErrSettlementAlreadyCompleted = errors.New("settlement: order already completed")
	// ErrSettlementUnavailable indicates a backing store could not be reached.
	ErrSettlementUnavailable = errors.New("settlement: unavailable")
)

// SettlementServiceDeps bundles collaborators required to construct the settlement service.
type SettlementServiceDeps struct {
	Orders          repositories.OrderRepository
	ScheduledOrders repositories.ScheduledOrderRepository
	Tasks           repositories.TaskRepository
	Agents          repositories.AgentRepository
	Customers       repositories.CustomerRepository
	Tariffs         repositories.TariffRepository
	Rewards         RewardsService
	Blobs           BlobStore
	Notifier        Notifier
	Events          OrderEventPublisher
	Clock           func() time.Time
	IDGenerator     func() string
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type settlementService struct {
	orders    repositories.OrderRepository
	scheduled repositories.ScheduledOrderRepository
	tasks     repositories.TaskRepository
	agents    repositories.AgentRepository
	customers repositories.CustomerRepository
	tariffs   repositories.TariffRepository
	rewards   RewardsService
	blobs     BlobStore
	notifier  Notifier
	events    OrderEventPublisher
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewSettlementService wires dependencies into a concrete SettlementService implementation.
func NewSettlementService(deps SettlementServiceDeps) (SettlementService, error) {
	if deps.Orders == nil {
		return nil, errors.New("settlement service: order repository is required")
	}
	if deps.Agents == nil {
		return nil, errors.New("settlement service: agent repository is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("settlement service: customer repository is required")
	}
	if deps.Tariffs == nil {
		return nil, errors.New("settlement service: tariff repository is required")
	}
	if deps.Rewards == nil {
		return nil, errors.New("settlement service: rewards service is required")
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
	return &settlementService{
		orders:    deps.Orders,
		scheduled: deps.ScheduledOrders,
		tasks:     deps.Tasks,
		agents:    deps.Agents,
		customers: deps.Customers,
		tariffs:   deps.Tariffs,
		rewards:   deps.Rewards,
		blobs:     deps.Blobs,
		notifier:  deps.Notifier,
		events:    deps.Events,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// CompleteOrder settles a delivered order: it pays the agent, closes the task,
// credits customer rewards and advances any subscription counter. Scheduled
// orders consume one delivery day per completion and only close for good on
// the final day.
func (s *settlementService) CompleteOrder(ctx context.Context, cmd CompleteOrderCommand) (SettlementResult, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	agentID := strings.TrimSpace(cmd.AgentID)
	if orderID == "" || agentID == "" {
		return SettlementResult{}, fmt.Errorf("%w: order id and agent id are required", ErrSettlementInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return SettlementResult{}, s.translateRepoError(err)
	}
	if order.Status == domain.OrderStatusCompleted {
		return SettlementResult{}, fmt.Errorf("%w: %s", ErrSettlementAlreadyCompleted, orderID)
	}
	if !canTransition(order.Status, domain.OrderStatusCompleted) {
		return SettlementResult{}, fmt.Errorf("%w: cannot complete order in status %s", ErrSettlementInvalidState, order.Status)
	}
	if order.AgentID != nil && *order.AgentID != agentID {
		return SettlementResult{}, fmt.Errorf("%w: order is assigned to another agent", ErrSettlementInvalidInput)
	}

	now := s.clock()
	expected := order.UpdatedAt
	timeTaken := elapsedMinutes(order.Stepper.Accepted, order.Stepper.Created, now)
	var delayedBy float64
	if order.OrderDetail.DeliveryTime != nil && now.After(*order.OrderDetail.DeliveryTime) {
		delayedBy = Round2(now.Sub(*order.OrderDetail.DeliveryTime).Minutes())
	}

	earning, err := s.agentEarning(ctx, order, timeTaken)
	if err != nil {
		return SettlementResult{}, err
	}

	finalDay := true
	if order.OrderDetail.DeliveryOption == domain.DeliveryOptionScheduled {
		finalDay = s.advanceScheduledDay(ctx, order.ID, now)
	}

	order.AgentID = &agentID
	order.TimeTakenMinutes = &timeTaken
	if delayedBy > 0 {
		order.DelayedByMinutes = &delayedBy
	}
	order.UpdatedAt = now
	if finalDay {
		order.Status = domain.OrderStatusCompleted
		order.Stepper.Completed = &now
		if order.PaymentMode == domain.PaymentModeCashOnDelivery {
			order.PaymentStatus = domain.PaymentStatusCompleted
		}
	}

	// The guarded write claims the completion: of two concurrent attempts
	// only one passes, so the agent payout below runs at most once.
	if err := s.orders.Update(ctx, order, updateGuard(expected)); err != nil {
		return SettlementResult{}, s.translateRepoError(err)
	}

	if _, err := s.agents.RecordCompletion(ctx, agentID, repositories.AgentCompletionRecord{
		OrderID:     order.ID,
		DistanceKm:  order.OrderDetail.DistanceKm,
		Earning:     earning,
		CompletedAt: now,
	}); err != nil {
		s.logger(ctx, "settlement.agent.record.failed", map[string]any{
			"agent":   agentID,
			"order":   order.ID,
			"earning": earning,
			"error":   err.Error(),
		})
		return SettlementResult{}, s.translateRepoError(err)
	}

	s.closeTask(ctx, order.ID, agentID, now)

	result := SettlementResult{
		Order:        order,
		AgentEarning: earning,
		TimeTakenMin: timeTaken,
		DelayedByMin: delayedBy,
	}
	if finalDay {
		result.LoyaltyPoints, result.ReferralPaid = s.applyCustomerRewards(ctx, order)
		if err := s.customers.AdvanceSubscriptionUsage(ctx, order.CustomerID, now); err != nil {
			s.logger(ctx, "settlement.subscription.advance.failed", map[string]any{
				"customer": order.CustomerID,
				"order":    order.ID,
				"error":    err.Error(),
			})
		}
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          "order.completed",
		OrderID:       order.ID,
		CurrentStatus: string(order.Status),
		ActorID:       agentID,
		OccurredAt:    now,
	})
	s.notify(ctx, order.CustomerID, "order.delivered", map[string]any{"orderId": order.ID}, "customer")
	s.notify(ctx, agentID, "task.earnings.recorded", map[string]any{
		"orderId": order.ID,
		"earning": earning,
	}, "agent")
	return result, nil
}

// AttachDeliveryProof stores the agent's notes, proof images and shop stops on
// an on-going order.
func (s *settlementService) AttachDeliveryProof(ctx context.Context, cmd AttachDeliveryProofCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	agentID := strings.TrimSpace(cmd.AgentID)
	if orderID == "" || agentID == "" {
		return Order{}, fmt.Errorf("%w: order id and agent id are required", ErrSettlementInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	expected := order.UpdatedAt
	if order.Status != domain.OrderStatusOnGoing {
		return Order{}, fmt.Errorf("%w: proof can only be attached to an on-going order", ErrSettlementInvalidState)
	}
	if order.AgentID != nil && *order.AgentID != agentID {
		return Order{}, fmt.Errorf("%w: order is assigned to another agent", ErrSettlementInvalidInput)
	}

	detail := order.DetailAddedByAgent
	if detail == nil {
		detail = &domain.AgentAddedDetail{}
	}
	if notes := strings.TrimSpace(cmd.Notes); notes != "" {
		detail.Notes = notes
	}

	for _, image := range cmd.Images {
		if s.blobs == nil {
			return Order{}, fmt.Errorf("%w: image storage is not configured", ErrSettlementInvalidInput)
		}
		url, err := s.blobs.StoreBlob(ctx, image.Content, deliveryProofCategory, order.ID, proofFileName(s.newID(), image.FileName), image.ContentType)
		if err != nil {
			return Order{}, fmt.Errorf("settlement: store proof image: %w", err)
		}
		detail.Images = append(detail.Images, url)
	}

	if cmd.ShopUpdate != nil {
		update := *cmd.ShopUpdate
		if update.UpdatedAt.IsZero() {
			update.UpdatedAt = s.clock()
		}
		detail.ShopUpdates = append(detail.ShopUpdates, update)
	}

	order.DetailAddedByAgent = detail
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order, updateGuard(expected)); err != nil {
		return Order{}, s.translateRepoError(err)
	}
	return order, nil
}

// --- internals --------------------------------------------------------------

// agentEarning prices the agent's work for one delivery. Purchase time only
// pays on Custom Order runs, where the agent shops on the customer's behalf.
func (s *settlementService) agentEarning(ctx context.Context, order domain.Order, timeTakenMin float64) (float64, error) {
	tariff, err := s.tariffs.AgentTariff(ctx, order.OrderDetail.GeofenceID)
	if err != nil {
		if isRepoNotFound(err) {
			return 0, nil
		}
		return 0, s.translateRepoError(err)
	}
	var purchaseHours float64
	if order.OrderDetail.DeliveryMode == domain.DeliveryModeCustomOrder {
		purchaseHours = timeTakenMin / 60
	}
	return AgentEarning(order.OrderDetail.DistanceKm, tariff, purchaseHours)
}

// advanceScheduledDay consumes one delivery day. It reports whether this was
// the final day of the window.
func (s *settlementService) advanceScheduledDay(ctx context.Context, orderID string, now time.Time) bool {
	if s.scheduled == nil {
		return true
	}
	scheduledOrder, err := s.scheduled.FindByID(ctx, orderID)
	if err != nil {
		if !isRepoNotFound(err) {
			s.logger(ctx, "settlement.scheduled.load.failed", map[string]any{
				"order": orderID,
				"error": err.Error(),
			})
		}
		return true
	}

	scheduledOrder.DaysFulfilled++
	final := scheduledOrder.DaysFulfilled >= scheduledOrder.NumOfDays
	if final {
		scheduledOrder.NextDeliveryAt = nil
	} else if scheduledOrder.NextDeliveryAt != nil {
		next := scheduledOrder.NextDeliveryAt.Add(24 * time.Hour)
		scheduledOrder.NextDeliveryAt = &next
	}
	scheduledOrder.UpdatedAt = now
	if err := s.scheduled.Update(ctx, scheduledOrder); err != nil {
		s.logger(ctx, "settlement.scheduled.update.failed", map[string]any{
			"order": orderID,
			"error": err.Error(),
		})
	}
	return final
}

// closeTask finishes the order's task and starts the agent's next queued one.
func (s *settlementService) closeTask(ctx context.Context, orderID, agentID string, now time.Time) {
	if s.tasks == nil {
		return
	}
	task, err := s.tasks.FindByOrder(ctx, orderID)
	if err != nil {
		if !isRepoNotFound(err) {
			s.logger(ctx, "settlement.task.load.failed", map[string]any{
				"order": orderID,
				"error": err.Error(),
			})
		}
		return
	}

	task.Status = domain.TaskStatusCompleted
	task.DeliveryDetail.Status = domain.TaskLegCompleted
	task.DeliveryDetail.EndedAt = &now
	task.UpdatedAt = now
	if err := s.tasks.Update(ctx, task); err != nil {
		s.logger(ctx, "settlement.task.close.failed", map[string]any{
			"task":  task.ID,
			"error": err.Error(),
		})
	}

	next, err := s.tasks.NextQueued(ctx, agentID)
	if err != nil {
		if !isRepoNotFound(err) {
			s.logger(ctx, "settlement.task.next.failed", map[string]any{
				"agent": agentID,
				"error": err.Error(),
			})
		}
		return
	}
	if next.PickupDetail.Status != domain.TaskLegAccepted {
		return
	}
	next.PickupDetail.Status = domain.TaskLegStarted
	next.PickupDetail.StartedAt = &now
	next.UpdatedAt = now
	if err := s.tasks.Update(ctx, next); err != nil {
		s.logger(ctx, "settlement.task.promote.failed", map[string]any{
			"task":  next.ID,
			"error": err.Error(),
		})
	}
}

// applyCustomerRewards runs loyalty and referral credits. Both are best
// effort: a reward failure never unwinds a completed delivery.
func (s *settlementService) applyCustomerRewards(ctx context.Context, order domain.Order) (int, bool) {
	points, err := s.rewards.AwardLoyaltyPoints(ctx, AwardLoyaltyCommand{
		CustomerID: order.CustomerID,
		OrderID:    order.ID,
		ItemTotal:  order.BillDetail.ItemTotal,
	})
	if err != nil {
		s.logger(ctx, "settlement.loyalty.failed", map[string]any{
			"customer": order.CustomerID,
			"order":    order.ID,
			"error":    err.Error(),
		})
	}

	paid, err := s.rewards.ProcessReferralRewards(ctx, order.CustomerID, order.BillDetail.ItemTotal)
	if err != nil {
		s.logger(ctx, "settlement.referral.failed", map[string]any{
			"customer": order.CustomerID,
			"order":    order.ID,
			"error":    err.Error(),
		})
	}
	return points, paid
}

func (s *settlementService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "settlement.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func (s *settlementService) notify(ctx context.Context, userID, event string, payload map[string]any, role string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, event, payload, role); err != nil {
		s.logger(ctx, "settlement.notify.failed", map[string]any{
			"user":  userID,
			"event": event,
			"error": err.Error(),
		})
	}
}

func (s *settlementService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrSettlementNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrSettlementAlreadyCompleted, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrSettlementUnavailable, err)
		}
	}
	return err
}

func elapsedMinutes(primary, fallback *time.Time, now time.Time) float64 {
	anchor := primary
	if anchor == nil {
		anchor = fallback
	}
	if anchor == nil {
		return 0
	}
	minutes := now.Sub(*anchor).Minutes()
	if minutes < 0 {
		return 0
	}
	return Round2(minutes)
}

func proofFileName(id, original string) string {
	ext := ""
	if idx := strings.LastIndex(original, "."); idx >= 0 {
		ext = original[idx:]
	}
	return fmt.Sprintf("%s%s", id, ext)
}
