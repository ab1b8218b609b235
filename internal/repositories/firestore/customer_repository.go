package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const customerCollection = "customers"

type walletTransactionDocument struct {
	ID             string    `firestore:"id"`
	Amount         float64   `firestore:"amount"`
	Type           string    `firestore:"type"`
	ClosingBalance float64   `firestore:"closingBalance"`
	OrderID        *string   `firestore:"orderId,omitempty"`
	Description    string    `firestore:"description,omitempty"`
	OccurredAt     time.Time `firestore:"occurredAt"`
}

type transactionEntryDocument struct {
	Type       string    `firestore:"type"`
	Direction  string    `firestore:"direction"`
	Amount     float64   `firestore:"amount"`
	OccurredAt time.Time `firestore:"occurredAt"`
}

type loyaltyEntryDocument struct {
	Points   int       `firestore:"points"`
	OrderID  string    `firestore:"orderId"`
	EarnedAt time.Time `firestore:"earnedAt"`
}

type loyaltyDetailDocument struct {
	EarnedToday       int                    `firestore:"earnedToday"`
	LeftForRedemption int                    `firestore:"leftForRedemption"`
	TotalEarned       int                    `firestore:"totalEarned"`
	Details           []loyaltyEntryDocument `firestore:"details,omitempty"`
}

type referralDetailDocument struct {
	ReferrerID string `firestore:"referrerId"`
	Processed  bool   `firestore:"processed"`
}

type subscriptionDocument struct {
	PlanID     string    `firestore:"planId"`
	OrderLimit int       `firestore:"orderLimit"`
	OrdersUsed int       `firestore:"ordersUsed"`
	ExpiresAt  time.Time `firestore:"expiresAt"`
}

type customerDocument struct {
	FullName           string                      `firestore:"fullName,omitempty"`
	Email              string                      `firestore:"email,omitempty"`
	Phone              string                      `firestore:"phone,omitempty"`
	GeofenceID         string                      `firestore:"geofenceId,omitempty"`
	RegisteredAt       time.Time                   `firestore:"registeredAt"`
	WalletBalance      float64                     `firestore:"walletBalance"`
	WalletTransactions []walletTransactionDocument `firestore:"walletTransactions,omitempty"`
	Transactions       []transactionEntryDocument  `firestore:"transactions,omitempty"`
	LoyaltyDetail      loyaltyDetailDocument       `firestore:"loyaltyDetail"`
	ReferralDetail     *referralDetailDocument     `firestore:"referralDetail,omitempty"`
	Subscription       *subscriptionDocument       `firestore:"subscription,omitempty"`
	UpdatedAt          time.Time                   `firestore:"updatedAt"`
}

// CustomerRepository stores customers and runs the transactional wallet,
// loyalty and referral mutations.
type CustomerRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[customerDocument]
}

// NewCustomerRepository constructs a Firestore-backed customer repository.
func NewCustomerRepository(provider *pfirestore.Provider) (*CustomerRepository, error) {
	if provider == nil {
		return nil, errors.New("customer repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[customerDocument](provider, customerCollection, nil, nil)
	return &CustomerRepository{
		provider: provider,
		base:     base,
	}, nil
}

// FindByID loads one customer.
func (r *CustomerRepository) FindByID(ctx context.Context, customerID string) (domain.Customer, error) {
	if r == nil || r.base == nil {
		return domain.Customer{}, errors.New("customer repository not initialised")
	}
	id := strings.TrimSpace(customerID)
	if id == "" {
		return domain.Customer{}, errors.New("customer repository: customer id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return decodeCustomer(doc.ID, doc.Data), nil
}

// Update overwrites the customer document.
func (r *CustomerRepository) Update(ctx context.Context, customer domain.Customer) error {
	if r == nil || r.base == nil {
		return errors.New("customer repository not initialised")
	}
	id := strings.TrimSpace(customer.ID)
	if id == "" {
		return errors.New("customer repository: customer id is required")
	}
	_, err := r.base.Set(ctx, id, encodeCustomer(customer))
	return err
}

// ApplyWalletMovement changes the balance and appends the wallet and ledger
// entries in one transaction. Debits exceeding the balance fail with a
// conflict and write nothing.
func (r *CustomerRepository) ApplyWalletMovement(ctx context.Context, customerID string, movement repositories.WalletMovement) (domain.Customer, error) {
	if r == nil || r.provider == nil {
		return domain.Customer{}, errors.New("customer repository not initialised")
	}
	id := strings.TrimSpace(customerID)
	if id == "" {
		return domain.Customer{}, errors.New("customer repository: customer id is required")
	}

	var updated domain.Customer
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc customerDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}

		doc, err = applyMovement(doc, movement)
		if err != nil {
			return err
		}
		doc.UpdatedAt = movement.Now.UTC()
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		updated = decodeCustomer(snapshot.Ref.ID, doc)
		return nil
	})
	if err != nil {
		return domain.Customer{}, pfirestore.WrapError("customers.applyWalletMovement", err)
	}
	return updated, nil
}

// ApplyLoyalty moves the three loyalty counters and appends the history entry
// in one transaction.
func (r *CustomerRepository) ApplyLoyalty(ctx context.Context, customerID string, points int, entry domain.LoyaltyPointEntry) (domain.Customer, error) {
	if r == nil || r.provider == nil {
		return domain.Customer{}, errors.New("customer repository not initialised")
	}
	id := strings.TrimSpace(customerID)
	if id == "" {
		return domain.Customer{}, errors.New("customer repository: customer id is required")
	}

	var updated domain.Customer
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc customerDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}

		doc.LoyaltyDetail.EarnedToday += points
		doc.LoyaltyDetail.LeftForRedemption += points
		doc.LoyaltyDetail.TotalEarned += points
		doc.LoyaltyDetail.Details = append(doc.LoyaltyDetail.Details, loyaltyEntryDocument{
			Points:   entry.Points,
			OrderID:  entry.OrderID,
			EarnedAt: entry.EarnedAt.UTC(),
		})
		doc.UpdatedAt = entry.EarnedAt.UTC()
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		updated = decodeCustomer(snapshot.Ref.ID, doc)
		return nil
	})
	if err != nil {
		return domain.Customer{}, pfirestore.WrapError("customers.applyLoyalty", err)
	}
	return updated, nil
}

// CreditReferral credits referrer and referee in one transaction and flips
// the referee's processed flag. A repeat run fails with a conflict.
func (r *CustomerRepository) CreditReferral(ctx context.Context, referrerID string, referrerMovement repositories.WalletMovement, refereeID string, refereeMovement repositories.WalletMovement) error {
	if r == nil || r.provider == nil {
		return errors.New("customer repository not initialised")
	}
	referrerID = strings.TrimSpace(referrerID)
	refereeID = strings.TrimSpace(refereeID)
	if referrerID == "" || refereeID == "" {
		return errors.New("customer repository: referrer and referee ids are required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		referrerRef, err := r.base.DocumentRef(ctx, referrerID)
		if err != nil {
			return err
		}
		refereeRef, err := r.base.DocumentRef(ctx, refereeID)
		if err != nil {
			return err
		}

		referrerSnap, err := tx.Get(referrerRef)
		if err != nil {
			return err
		}
		refereeSnap, err := tx.Get(refereeRef)
		if err != nil {
			return err
		}

		var referrer, referee customerDocument
		if err := referrerSnap.DataTo(&referrer); err != nil {
			return err
		}
		if err := refereeSnap.DataTo(&referee); err != nil {
			return err
		}

		if referee.ReferralDetail == nil || referee.ReferralDetail.Processed {
			return status.Error(codes.FailedPrecondition, "referral already processed")
		}

		referrer, err = applyMovement(referrer, referrerMovement)
		if err != nil {
			return err
		}
		referee, err = applyMovement(referee, refereeMovement)
		if err != nil {
			return err
		}
		referee.ReferralDetail.Processed = true
		referrer.UpdatedAt = referrerMovement.Now.UTC()
		referee.UpdatedAt = refereeMovement.Now.UTC()

		if err := tx.Set(referrerRef, referrer); err != nil {
			return err
		}
		return tx.Set(refereeRef, referee)
	})
	return pfirestore.WrapError("customers.creditReferral", err)
}

// AdvanceSubscriptionUsage increments the subscribed customer's order counter.
// Customers without an active subscription are left untouched.
func (r *CustomerRepository) AdvanceSubscriptionUsage(ctx context.Context, customerID string, now time.Time) error {
	if r == nil || r.provider == nil {
		return errors.New("customer repository not initialised")
	}
	id := strings.TrimSpace(customerID)
	if id == "" {
		return errors.New("customer repository: customer id is required")
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
		var doc customerDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}
		if doc.Subscription == nil || doc.Subscription.ExpiresAt.Before(now) {
			return nil
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "subscription.ordersUsed", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: now.UTC()},
		})
	})
	return pfirestore.WrapError("customers.advanceSubscription", err)
}

// applyMovement mutates the document's wallet state. It enforces the
// non-negative balance invariant for debits.
func applyMovement(doc customerDocument, movement repositories.WalletMovement) (customerDocument, error) {
	balance := doc.WalletBalance
	switch movement.Type {
	case domain.WalletCredit:
		balance += movement.Amount
	case domain.WalletDebit:
		if movement.Amount > balance {
			return doc, status.Error(codes.FailedPrecondition, "insufficient wallet balance")
		}
		balance -= movement.Amount
	default:
		return doc, status.Error(codes.InvalidArgument, "unknown wallet movement type")
	}

	doc.WalletBalance = balance
	doc.WalletTransactions = append(doc.WalletTransactions, walletTransactionDocument{
		ID:             movement.TransactionID,
		Amount:         movement.Amount,
		Type:           string(movement.Type),
		ClosingBalance: balance,
		OrderID:        movement.OrderID,
		Description:    movement.Description,
		OccurredAt:     movement.Now.UTC(),
	})
	doc.Transactions = append(doc.Transactions, transactionEntryDocument{
		Type:       string(movement.Category),
		Direction:  string(movement.Type),
		Amount:     movement.Amount,
		OccurredAt: movement.Now.UTC(),
	})
	return doc, nil
}

func encodeCustomer(customer domain.Customer) customerDocument {
	doc := customerDocument{
		FullName:      customer.FullName,
		Email:         customer.Email,
		Phone:         customer.Phone,
		GeofenceID:    customer.GeofenceID,
		RegisteredAt:  customer.RegisteredAt.UTC(),
		WalletBalance: customer.WalletBalance,
		LoyaltyDetail: loyaltyDetailDocument{
			EarnedToday:       customer.LoyaltyDetail.EarnedToday,
			LeftForRedemption: customer.LoyaltyDetail.LeftForRedemption,
			TotalEarned:       customer.LoyaltyDetail.TotalEarned,
		},
		UpdatedAt: customer.UpdatedAt.UTC(),
	}
	for _, txn := range customer.WalletTransactions {
		doc.WalletTransactions = append(doc.WalletTransactions, walletTransactionDocument{
			ID:             txn.ID,
			Amount:         txn.Amount,
			Type:           string(txn.Type),
			ClosingBalance: txn.ClosingBalance,
			OrderID:        txn.OrderID,
			Description:    txn.Description,
			OccurredAt:     txn.OccurredAt.UTC(),
		})
	}
	for _, entry := range customer.Transactions {
		doc.Transactions = append(doc.Transactions, transactionEntryDocument{
			Type:       string(entry.Type),
			Direction:  string(entry.Direction),
			Amount:     entry.Amount,
			OccurredAt: entry.OccurredAt.UTC(),
		})
	}
	for _, entry := range customer.LoyaltyDetail.Details {
		doc.LoyaltyDetail.Details = append(doc.LoyaltyDetail.Details, loyaltyEntryDocument{
			Points:   entry.Points,
			OrderID:  entry.OrderID,
			EarnedAt: entry.EarnedAt.UTC(),
		})
	}
	if customer.ReferralDetail != nil {
		doc.ReferralDetail = &referralDetailDocument{
			ReferrerID: customer.ReferralDetail.ReferrerID,
			Processed:  customer.ReferralDetail.Processed,
		}
	}
	if customer.Subscription != nil {
		doc.Subscription = &subscriptionDocument{
			PlanID:     customer.Subscription.PlanID,
			OrderLimit: customer.Subscription.OrderLimit,
			OrdersUsed: customer.Subscription.OrdersUsed,
			ExpiresAt:  customer.Subscription.ExpiresAt.UTC(),
		}
	}
	return doc
}

func decodeCustomer(id string, doc customerDocument) domain.Customer {
	customer := domain.Customer{
		ID:            id,
		FullName:      doc.FullName,
		Email:         doc.Email,
		Phone:         doc.Phone,
		GeofenceID:    doc.GeofenceID,
		RegisteredAt:  doc.RegisteredAt,
		WalletBalance: doc.WalletBalance,
		LoyaltyDetail: domain.LoyaltyDetail{
			EarnedToday:       doc.LoyaltyDetail.EarnedToday,
			LeftForRedemption: doc.LoyaltyDetail.LeftForRedemption,
			TotalEarned:       doc.LoyaltyDetail.TotalEarned,
		},
		UpdatedAt: doc.UpdatedAt,
	}
	for _, txn := range doc.WalletTransactions {
		customer.WalletTransactions = append(customer.WalletTransactions, domain.WalletTransaction{
			ID:             txn.ID,
			Amount:         txn.Amount,
			Type:           domain.WalletTransactionType(txn.Type),
			ClosingBalance: txn.ClosingBalance,
			OrderID:        txn.OrderID,
			Description:    txn.Description,
			OccurredAt:     txn.OccurredAt,
		})
	}
	for _, entry := range doc.Transactions {
		customer.Transactions = append(customer.Transactions, domain.TransactionEntry{
			Type:       domain.TransactionType(entry.Type),
			Direction:  domain.WalletTransactionType(entry.Direction),
			Amount:     entry.Amount,
			OccurredAt: entry.OccurredAt,
		})
	}
	for _, entry := range doc.LoyaltyDetail.Details {
		customer.LoyaltyDetail.Details = append(customer.LoyaltyDetail.Details, domain.LoyaltyPointEntry{
			Points:   entry.Points,
			OrderID:  entry.OrderID,
			EarnedAt: entry.EarnedAt,
		})
	}
	if doc.ReferralDetail != nil {
		customer.ReferralDetail = &domain.ReferralDetail{
			ReferrerID: doc.ReferralDetail.ReferrerID,
			Processed:  doc.ReferralDetail.Processed,
		}
	}
	if doc.Subscription != nil {
		customer.Subscription = &domain.SubscriptionDetail{
			PlanID:     doc.Subscription.PlanID,
			OrderLimit: doc.Subscription.OrderLimit,
			OrdersUsed: doc.Subscription.OrdersUsed,
			ExpiresAt:  doc.Subscription.ExpiresAt,
		}
	}
	return customer
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)
