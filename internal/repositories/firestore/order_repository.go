package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/platform/pagination"
	"github.com/famto/api/internal/repositories"
)

const (
	orderCollection      = "orders"
	defaultOrderPageSize = 25
	maxOrderPageSize     = 100
)

type stepperDocument struct {
	Created   *time.Time `firestore:"created,omitempty"`
	Accepted  *time.Time `firestore:"accepted,omitempty"`
	Assigned  *time.Time `firestore:"assigned,omitempty"`
	PickedUp  *time.Time `firestore:"pickedUp,omitempty"`
	Completed *time.Time `firestore:"completed,omitempty"`
	Cancelled *time.Time `firestore:"cancelled,omitempty"`
}

type commissionDocument struct {
	MerchantEarnings float64 `firestore:"merchantEarnings"`
	FamtoEarnings    float64 `firestore:"famtoEarnings"`
}

type ratingDocument struct {
	Score   int       `firestore:"score"`
	Comment string    `firestore:"comment,omitempty"`
	RatedAt time.Time `firestore:"ratedAt"`
}

type orderRatingDocument struct {
	ToAgent    *ratingDocument `firestore:"toAgent,omitempty"`
	ToCustomer *ratingDocument `firestore:"toCustomer,omitempty"`
}

type shopUpdateDocument struct {
	Location  locationDocument `firestore:"location"`
	Address   string           `firestore:"address,omitempty"`
	UpdatedAt time.Time        `firestore:"updatedAt"`
}

type agentAddedDetailDocument struct {
	Notes       string               `firestore:"notes,omitempty"`
	Images      []string             `firestore:"images,omitempty"`
	ShopUpdates []shopUpdateDocument `firestore:"shopUpdates,omitempty"`
}

type orderDocument struct {
	CustomerID         string                    `firestore:"customerId"`
	MerchantID         *string                   `firestore:"merchantId,omitempty"`
	AgentID            *string                   `firestore:"agentId,omitempty"`
	Items              []cartItemDocument        `firestore:"items,omitempty"`
	OrderDetail        deliveryDetailDocument    `firestore:"orderDetail"`
	BillDetail         billDetailDocument        `firestore:"billDetail"`
	TotalAmount        float64                   `firestore:"totalAmount"`
	Status             string                    `firestore:"status"`
	PaymentMode        string                    `firestore:"paymentMode"`
	PaymentStatus      string                    `firestore:"paymentStatus"`
	PaymentID          *string                   `firestore:"paymentId,omitempty"`
	RefundID           *string                   `firestore:"refundId,omitempty"`
	CommissionDetail   *commissionDocument       `firestore:"commissionDetail,omitempty"`
	OrderRating        *orderRatingDocument      `firestore:"orderRating,omitempty"`
	DetailAddedByAgent *agentAddedDetailDocument `firestore:"detailAddedByAgent,omitempty"`
	Stepper            stepperDocument           `firestore:"stepper"`
	CancelReason       *string                   `firestore:"cancelReason,omitempty"`
	TimeTakenMinutes   *float64                  `firestore:"timeTakenMinutes,omitempty"`
	DelayedByMinutes   *float64                  `firestore:"delayedByMinutes,omitempty"`
	CreatedAt          time.Time                 `firestore:"createdAt"`
	UpdatedAt          time.Time                 `firestore:"updatedAt"`
}

// OrderRepository persists durable orders within Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Insert creates the durable order document.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.base.Set(ctx, id, encodeOrderDocument(order))
	return err
}

// Update overwrites the order document with the new snapshot. A non-nil
// expectedUpdate makes the write conditional: the transaction re-reads the
// document and fails with a conflict when another writer moved updatedAt in
// the meantime. Status transitions always pass the guard so two concurrent
// merchant decisions or completions cannot both apply.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order, expectedUpdate *time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	if expectedUpdate == nil || expectedUpdate.IsZero() {
		_, err := r.base.Set(ctx, id, encodeOrderDocument(order))
		return err
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var stored orderDocument
		if err := snapshot.DataTo(&stored); err != nil {
			return err
		}
		if !stored.UpdatedAt.Equal(expectedUpdate.UTC()) {
			return status.Errorf(codes.FailedPrecondition, "order %s was modified concurrently", id)
		}
		return tx.Set(ref, encodeOrderDocument(order))
	})
	if err != nil {
		return pfirestore.WrapError("orders.update", err)
	}
	return nil
}

// FindByID loads one durable order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrderDocument(doc.ID, doc.Data), nil
}

// List pages orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = defaultOrderPageSize
	}
	if pageSize > maxOrderPageSize {
		pageSize = maxOrderPageSize
	}

	cursor, err := parseOrderPageToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if id := strings.TrimSpace(filter.CustomerID); id != "" {
			query = query.Where("customerId", "==", id)
		}
		if id := strings.TrimSpace(filter.MerchantID); id != "" {
			query = query.Where("merchantId", "==", id)
		}
		if id := strings.TrimSpace(filter.AgentID); id != "" {
			query = query.Where("agentId", "==", id)
		}
		if len(filter.Status) == 1 {
			query = query.Where("status", "==", string(filter.Status[0]))
		} else if len(filter.Status) > 1 {
			statuses := make([]string, 0, len(filter.Status))
			for _, status := range filter.Status {
				statuses = append(statuses, string(status))
			}
			query = query.Where("status", "in", statuses)
		}
		if filter.DateRange.From != nil {
			query = query.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			query = query.Where("createdAt", "<=", filter.DateRange.To.UTC())
		}
		query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if cursor != nil {
			query = query.StartAfter(cursor.createdAt, cursor.id)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	page := domain.CursorPage[domain.Order]{}
	for i, doc := range docs {
		if i == pageSize {
			last := docs[i-1]
			page.NextPageToken = formatOrderPageToken(last.Data.CreatedAt, last.ID)
			break
		}
		page.Items = append(page.Items, decodeOrderDocument(doc.ID, doc.Data))
	}
	return page, nil
}

type orderPageCursor struct {
	createdAt time.Time
	id        string
}

func parseOrderPageToken(token string) (*orderPageCursor, error) {
	cursor, err := pagination.DecodeToken(token)
	if err != nil {
		return nil, err
	}
	if len(cursor.StartAfter) == 0 {
		return nil, nil
	}
	if len(cursor.StartAfter) != 2 {
		return nil, fmt.Errorf("%w: expected two cursor values", pagination.ErrInvalidPageToken)
	}
	rawCreatedAt, ok := cursor.StartAfter[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: malformed createdAt cursor value", pagination.ErrInvalidPageToken)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rawCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pagination.ErrInvalidPageToken, err)
	}
	id, ok := cursor.StartAfter[1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: malformed id cursor value", pagination.ErrInvalidPageToken)
	}
	return &orderPageCursor{createdAt: createdAt, id: id}, nil
}

func formatOrderPageToken(createdAt time.Time, id string) string {
	token, err := pagination.EncodeToken(pagination.Cursor{
		StartAfter: []any{createdAt.UTC().Format(time.RFC3339Nano), id},
	})
	if err != nil {
		return ""
	}
	return token
}

func encodeOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		CustomerID:       order.CustomerID,
		MerchantID:       order.MerchantID,
		AgentID:          order.AgentID,
		Items:            encodeCartItems(order.Items),
		OrderDetail:      encodeOrderDetail(order.OrderDetail),
		BillDetail:       encodeBillDetail(order.BillDetail),
		TotalAmount:      order.TotalAmount,
		Status:           string(order.Status),
		PaymentMode:      string(order.PaymentMode),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentID:        order.PaymentID,
		RefundID:         order.RefundID,
		Stepper:          encodeStepper(order.Stepper),
		CancelReason:     order.CancelReason,
		TimeTakenMinutes: order.TimeTakenMinutes,
		DelayedByMinutes: order.DelayedByMinutes,
		CreatedAt:        order.CreatedAt.UTC(),
		UpdatedAt:        order.UpdatedAt.UTC(),
	}
	if order.CommissionDetail != nil {
		doc.CommissionDetail = &commissionDocument{
			MerchantEarnings: order.CommissionDetail.MerchantEarnings,
			FamtoEarnings:    order.CommissionDetail.FamtoEarnings,
		}
	}
	if order.OrderRating != nil {
		doc.OrderRating = &orderRatingDocument{
			ToAgent:    encodeRating(order.OrderRating.ToAgent),
			ToCustomer: encodeRating(order.OrderRating.ToCustomer),
		}
	}
	if order.DetailAddedByAgent != nil {
		doc.DetailAddedByAgent = encodeAgentAddedDetail(order.DetailAddedByAgent)
	}
	return doc
}

func decodeOrderDocument(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:               id,
		CustomerID:       doc.CustomerID,
		MerchantID:       doc.MerchantID,
		AgentID:          doc.AgentID,
		Items:            decodeCartItems(doc.Items),
		OrderDetail:      decodeOrderDetail(doc.OrderDetail),
		BillDetail:       decodeBillDetail(doc.BillDetail),
		TotalAmount:      doc.TotalAmount,
		Status:           domain.OrderStatus(doc.Status),
		PaymentMode:      domain.PaymentMode(doc.PaymentMode),
		PaymentStatus:    domain.PaymentStatus(doc.PaymentStatus),
		PaymentID:        doc.PaymentID,
		RefundID:         doc.RefundID,
		Stepper:          decodeStepper(doc.Stepper),
		CancelReason:     doc.CancelReason,
		TimeTakenMinutes: doc.TimeTakenMinutes,
		DelayedByMinutes: doc.DelayedByMinutes,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	if doc.CommissionDetail != nil {
		order.CommissionDetail = &domain.CommissionDetail{
			MerchantEarnings: doc.CommissionDetail.MerchantEarnings,
			FamtoEarnings:    doc.CommissionDetail.FamtoEarnings,
		}
	}
	if doc.OrderRating != nil {
		order.OrderRating = &domain.OrderRating{
			ToAgent:    decodeRating(doc.OrderRating.ToAgent),
			ToCustomer: decodeRating(doc.OrderRating.ToCustomer),
		}
	}
	if doc.DetailAddedByAgent != nil {
		order.DetailAddedByAgent = decodeAgentAddedDetail(doc.DetailAddedByAgent)
	}
	return order
}

func encodeStepper(stepper domain.OrderStepper) stepperDocument {
	return stepperDocument{
		Created:   stepper.Created,
		Accepted:  stepper.Accepted,
		Assigned:  stepper.Assigned,
		PickedUp:  stepper.PickedUp,
		Completed: stepper.Completed,
		Cancelled: stepper.Cancelled,
	}
}

func decodeStepper(doc stepperDocument) domain.OrderStepper {
	return domain.OrderStepper{
		Created:   doc.Created,
		Accepted:  doc.Accepted,
		Assigned:  doc.Assigned,
		PickedUp:  doc.PickedUp,
		Completed: doc.Completed,
		Cancelled: doc.Cancelled,
	}
}

func encodeRating(rating *domain.Rating) *ratingDocument {
	if rating == nil {
		return nil
	}
	return &ratingDocument{
		Score:   rating.Score,
		Comment: rating.Comment,
		RatedAt: rating.RatedAt.UTC(),
	}
}

func decodeRating(doc *ratingDocument) *domain.Rating {
	if doc == nil {
		return nil
	}
	return &domain.Rating{
		Score:   doc.Score,
		Comment: doc.Comment,
		RatedAt: doc.RatedAt,
	}
}

func encodeAgentAddedDetail(detail *domain.AgentAddedDetail) *agentAddedDetailDocument {
	doc := &agentAddedDetailDocument{
		Notes:  detail.Notes,
		Images: append([]string(nil), detail.Images...),
	}
	for _, update := range detail.ShopUpdates {
		doc.ShopUpdates = append(doc.ShopUpdates, shopUpdateDocument{
			Location:  locationDocument{Latitude: update.Location.Latitude, Longitude: update.Location.Longitude},
			Address:   update.Address,
			UpdatedAt: update.UpdatedAt.UTC(),
		})
	}
	return doc
}

func decodeAgentAddedDetail(doc *agentAddedDetailDocument) *domain.AgentAddedDetail {
	detail := &domain.AgentAddedDetail{
		Notes:  doc.Notes,
		Images: append([]string(nil), doc.Images...),
	}
	for _, update := range doc.ShopUpdates {
		detail.ShopUpdates = append(detail.ShopUpdates, domain.ShopUpdate{
			Location:  domain.Location{Latitude: update.Location.Latitude, Longitude: update.Location.Longitude},
			Address:   update.Address,
			UpdatedAt: update.UpdatedAt,
		})
	}
	return detail
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
