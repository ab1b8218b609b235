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

const cartCollection = "carts"

// CartRepository persists the single draft cart per customer within Firestore.
// The customer ID doubles as the document identifier.
type CartRepository struct {
	base     *pfirestore.BaseRepository[cartDocument]
	provider *pfirestore.Provider
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil)
	return &CartRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Upsert persists the full cart snapshot. When expectedUpdate is set, the
// write only succeeds if the stored document still carries that update time.
func (r *CartRepository) Upsert(ctx context.Context, cart domain.Cart, expectedUpdate *time.Time) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}

	cartID := strings.TrimSpace(cart.ID)
	if cartID == "" {
		cartID = strings.TrimSpace(cart.CustomerID)
	}
	if cartID == "" {
		return domain.Cart{}, errors.New("cart repository: cart id is required")
	}

	now := time.Now().UTC()
	if !cart.UpdatedAt.IsZero() {
		now = cart.UpdatedAt.UTC()
	}
	createdAt := cart.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}

	doc := cartDocument{
		CustomerID: strings.TrimSpace(cart.CustomerID),
		MerchantID: cart.MerchantID,
		Items:      encodeCartItems(cart.Items),
		CartDetail: encodeCartDetail(cart.CartDetail),
		BillDetail: encodeBillDetail(cart.BillDetail),
		PromoCode:  cart.PromoCode,
		CreatedAt:  createdAt,
		UpdatedAt:  now,
	}

	var result pfirestore.MutationResult
	var err error
	if expectedUpdate == nil || expectedUpdate.IsZero() {
		result, err = r.base.Set(ctx, cartID, doc)
	} else {
		updates := []firestore.Update{
			{Path: "customerId", Value: doc.CustomerID},
			{Path: "items", Value: doc.Items},
			{Path: "cartDetail", Value: doc.CartDetail},
			{Path: "billDetail", Value: doc.BillDetail},
			{Path: "updatedAt", Value: doc.UpdatedAt},
		}
		if doc.MerchantID == nil {
			updates = append(updates, firestore.Update{Path: "merchantId", Value: firestore.Delete})
		} else {
			updates = append(updates, firestore.Update{Path: "merchantId", Value: *doc.MerchantID})
		}
		if doc.PromoCode == nil {
			updates = append(updates, firestore.Update{Path: "promoCode", Value: firestore.Delete})
		} else {
			updates = append(updates, firestore.Update{Path: "promoCode", Value: *doc.PromoCode})
		}
		result, err = r.base.Update(ctx, cartID, updates, firestore.LastUpdateTime(expectedUpdate.UTC()))
	}
	if err != nil {
		return domain.Cart{}, err
	}

	saved := cart
	saved.ID = cartID
	saved.CreatedAt = createdAt
	saved.UpdatedAt = result.UpdateTime
	return saved, nil
}

// FindByCustomer loads the draft cart owned by the customer.
func (r *CartRepository) FindByCustomer(ctx context.Context, customerID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	id := strings.TrimSpace(customerID)
	if id == "" {
		return domain.Cart{}, errors.New("cart repository: customer id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Cart{}, err
	}
	return decodeCartDocument(doc), nil
}

// Delete removes the customer's cart.
func (r *CartRepository) Delete(ctx context.Context, customerID string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	id := strings.TrimSpace(customerID)
	if id == "" {
		return errors.New("cart repository: customer id is required")
	}
	return r.base.Delete(ctx, id)
}

func decodeCartDocument(doc pfirestore.Document[cartDocument]) domain.Cart {
	customerID := strings.TrimSpace(doc.Data.CustomerID)
	if customerID == "" {
		customerID = doc.ID
	}
	cart := domain.Cart{
		ID:         doc.ID,
		CustomerID: customerID,
		MerchantID: doc.Data.MerchantID,
		Items:      decodeCartItems(doc.Data.Items),
		CartDetail: decodeCartDetail(doc.Data.CartDetail),
		BillDetail: decodeBillDetail(doc.Data.BillDetail),
		PromoCode:  doc.Data.PromoCode,
		CreatedAt:  doc.Data.CreatedAt,
		UpdatedAt:  doc.Data.UpdatedAt,
	}
	if !doc.UpdateTime.IsZero() {
		cart.UpdatedAt = doc.UpdateTime
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = doc.CreateTime
	}
	return cart
}

type cartDocument struct {
	CustomerID string                 `firestore:"customerId"`
	MerchantID *string                `firestore:"merchantId,omitempty"`
	Items      []cartItemDocument     `firestore:"items,omitempty"`
	CartDetail deliveryDetailDocument `firestore:"cartDetail"`
	BillDetail billDetailDocument     `firestore:"billDetail"`
	PromoCode  *string                `firestore:"promoCode,omitempty"`
	CreatedAt  time.Time              `firestore:"createdAt"`
	UpdatedAt  time.Time              `firestore:"updatedAt"`
}

var _ repositories.CartRepository = (*CartRepository)(nil)
