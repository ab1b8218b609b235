package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const temporaryOrderCollection = "temporaryOrders"

type temporaryOrderDocument struct {
	OrderID       string                 `firestore:"orderId"`
	CustomerID    string                 `firestore:"customerId"`
	MerchantID    *string                `firestore:"merchantId,omitempty"`
	Items         []cartItemDocument     `firestore:"items,omitempty"`
	OrderDetail   deliveryDetailDocument `firestore:"orderDetail"`
	BillDetail    billDetailDocument     `firestore:"billDetail"`
	TotalAmount   float64                `firestore:"totalAmount"`
	Status        string                 `firestore:"status"`
	PaymentMode   string                 `firestore:"paymentMode"`
	PaymentStatus string                 `firestore:"paymentStatus"`
	PaymentID     *string                `firestore:"paymentId,omitempty"`
	StagedAt      time.Time              `firestore:"stagedAt"`
	ExpiresAt     time.Time              `firestore:"expiresAt"`
}

// TemporaryOrderRepository stages confirmed carts for the cancellation window.
// Claim is the exactly-once primitive both promotion and cancellation race on.
type TemporaryOrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[temporaryOrderDocument]
}

// NewTemporaryOrderRepository constructs a Firestore-backed staging repository.
func NewTemporaryOrderRepository(provider *pfirestore.Provider) (*TemporaryOrderRepository, error) {
	if provider == nil {
		return nil, errors.New("temporary order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[temporaryOrderDocument](provider, temporaryOrderCollection, nil, nil)
	return &TemporaryOrderRepository{
		provider: provider,
		base:     base,
	}, nil
}

// Insert stages a confirmed cart.
func (r *TemporaryOrderRepository) Insert(ctx context.Context, order domain.TemporaryOrder) error {
	if r == nil || r.base == nil {
		return errors.New("temporary order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("temporary order repository: id is required")
	}
	_, err := r.base.Set(ctx, id, encodeTemporaryOrder(order))
	return err
}

// FindByID loads a staged order.
func (r *TemporaryOrderRepository) FindByID(ctx context.Context, temporaryOrderID string) (domain.TemporaryOrder, error) {
	if r == nil || r.base == nil {
		return domain.TemporaryOrder{}, errors.New("temporary order repository not initialised")
	}
	id := strings.TrimSpace(temporaryOrderID)
	if id == "" {
		return domain.TemporaryOrder{}, errors.New("temporary order repository: id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.TemporaryOrder{}, err
	}
	return decodeTemporaryOrder(doc.ID, doc.Data), nil
}

// Claim atomically fetches and deletes the staged order. Of two concurrent
// claimers exactly one receives the document; the other observes not-found.
func (r *TemporaryOrderRepository) Claim(ctx context.Context, temporaryOrderID string) (domain.TemporaryOrder, error) {
	if r == nil || r.provider == nil {
		return domain.TemporaryOrder{}, errors.New("temporary order repository not initialised")
	}
	id := strings.TrimSpace(temporaryOrderID)
	if id == "" {
		return domain.TemporaryOrder{}, errors.New("temporary order repository: id is required")
	}

	var claimed domain.TemporaryOrder
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc temporaryOrderDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}
		claimed = decodeTemporaryOrder(snapshot.Ref.ID, doc)
		return tx.Delete(ref)
	})
	if err != nil {
		return domain.TemporaryOrder{}, pfirestore.WrapError("temporaryOrders.claim", err)
	}
	return claimed, nil
}

// ListExpired returns staged orders whose countdown already elapsed.
func (r *TemporaryOrderRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]domain.TemporaryOrder, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("temporary order repository not initialised")
	}
	if limit <= 0 {
		limit = 50
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("expiresAt", "<=", cutoff.UTC()).
			OrderBy("expiresAt", firestore.Asc).
			Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.TemporaryOrder, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeTemporaryOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

func encodeTemporaryOrder(order domain.TemporaryOrder) temporaryOrderDocument {
	return temporaryOrderDocument{
		OrderID:       order.OrderID,
		CustomerID:    order.CustomerID,
		MerchantID:    order.MerchantID,
		Items:         encodeCartItems(order.Items),
		OrderDetail:   encodeOrderDetail(order.OrderDetail),
		BillDetail:    encodeBillDetail(order.BillDetail),
		TotalAmount:   order.TotalAmount,
		Status:        string(order.Status),
		PaymentMode:   string(order.PaymentMode),
		PaymentStatus: string(order.PaymentStatus),
		PaymentID:     order.PaymentID,
		StagedAt:      order.StagedAt.UTC(),
		ExpiresAt:     order.ExpiresAt.UTC(),
	}
}

func decodeTemporaryOrder(id string, doc temporaryOrderDocument) domain.TemporaryOrder {
	return domain.TemporaryOrder{
		ID:            id,
		OrderID:       doc.OrderID,
		CustomerID:    doc.CustomerID,
		MerchantID:    doc.MerchantID,
		Items:         decodeCartItems(doc.Items),
		OrderDetail:   decodeOrderDetail(doc.OrderDetail),
		BillDetail:    decodeBillDetail(doc.BillDetail),
		TotalAmount:   doc.TotalAmount,
		Status:        domain.OrderStatus(doc.Status),
		PaymentMode:   domain.PaymentMode(doc.PaymentMode),
		PaymentStatus: domain.PaymentStatus(doc.PaymentStatus),
		PaymentID:     doc.PaymentID,
		StagedAt:      doc.StagedAt,
		ExpiresAt:     doc.ExpiresAt,
	}
}

var _ repositories.TemporaryOrderRepository = (*TemporaryOrderRepository)(nil)
