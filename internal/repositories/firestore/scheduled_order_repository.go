package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const scheduledOrderCollection = "scheduledOrders"

type scheduledOrderDocument struct {
	orderDocument
	StartDate      time.Time  `firestore:"startDate"`
	EndDate        time.Time  `firestore:"endDate"`
	Time           time.Time  `firestore:"time"`
	NumOfDays      int        `firestore:"numOfDays"`
	DaysFulfilled  int        `firestore:"daysFulfilled"`
	NextDeliveryAt *time.Time `firestore:"nextDeliveryAt,omitempty"`
}

// ScheduledOrderRepository persists the multi-day schedule projection of
// scheduled orders. The document shares its ID with the durable order.
type ScheduledOrderRepository struct {
	base *pfirestore.BaseRepository[scheduledOrderDocument]
}

// NewScheduledOrderRepository constructs a Firestore-backed scheduled order repository.
func NewScheduledOrderRepository(provider *pfirestore.Provider) (*ScheduledOrderRepository, error) {
	if provider == nil {
		return nil, errors.New("scheduled order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[scheduledOrderDocument](provider, scheduledOrderCollection, nil, nil)
	return &ScheduledOrderRepository{base: base}, nil
}

// Insert creates the schedule projection.
func (r *ScheduledOrderRepository) Insert(ctx context.Context, order domain.ScheduledOrder) error {
	if r == nil || r.base == nil {
		return errors.New("scheduled order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("scheduled order repository: order id is required")
	}
	_, err := r.base.Set(ctx, id, encodeScheduledOrder(order))
	return err
}

// Update overwrites the schedule projection.
func (r *ScheduledOrderRepository) Update(ctx context.Context, order domain.ScheduledOrder) error {
	return r.Insert(ctx, order)
}

// FindByID loads the schedule projection for the order.
func (r *ScheduledOrderRepository) FindByID(ctx context.Context, orderID string) (domain.ScheduledOrder, error) {
	if r == nil || r.base == nil {
		return domain.ScheduledOrder{}, errors.New("scheduled order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.ScheduledOrder{}, errors.New("scheduled order repository: order id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.ScheduledOrder{}, err
	}
	return decodeScheduledOrder(doc.ID, doc.Data), nil
}

func encodeScheduledOrder(order domain.ScheduledOrder) scheduledOrderDocument {
	return scheduledOrderDocument{
		orderDocument:  encodeOrderDocument(order.Order),
		StartDate:      order.StartDate.UTC(),
		EndDate:        order.EndDate.UTC(),
		Time:           order.Time.UTC(),
		NumOfDays:      order.NumOfDays,
		DaysFulfilled:  order.DaysFulfilled,
		NextDeliveryAt: order.NextDeliveryAt,
	}
}

func decodeScheduledOrder(id string, doc scheduledOrderDocument) domain.ScheduledOrder {
	return domain.ScheduledOrder{
		Order:          decodeOrderDocument(id, doc.orderDocument),
		StartDate:      doc.StartDate,
		EndDate:        doc.EndDate,
		Time:           doc.Time,
		NumOfDays:      doc.NumOfDays,
		DaysFulfilled:  doc.DaysFulfilled,
		NextDeliveryAt: doc.NextDeliveryAt,
	}
}

var _ repositories.ScheduledOrderRepository = (*ScheduledOrderRepository)(nil)
