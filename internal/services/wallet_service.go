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

const walletTransactionIDPrefix = "wtx_"

var (
	// ErrWalletInvalidInput signals the caller provided invalid movement data.
	ErrWalletInvalidInput = errors.New("wallet: invalid input")
	// ErrWalletCustomerNotFound indicates the wallet owner does not exist.
	ErrWalletCustomerNotFound = errors.New("wallet: customer not found")
	// ErrWalletInsufficientBalance indicates a debit larger than the balance.
	ErrWalletInsufficientBalance = errors.New("wallet: insufficient balance")
	// ErrWalletUnavailable indicates the customer store could not be reached.
	ErrWalletUnavailable = errors.New("wallet: unavailable")
)

// WalletServiceDeps bundles collaborators required to construct the wallet service.
type WalletServiceDeps struct {
	Customers   repositories.CustomerRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type walletService struct {
	customers repositories.CustomerRepository
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewWalletService wires dependencies into a concrete WalletService implementation.
func NewWalletService(deps WalletServiceDeps) (WalletService, error) {
	if deps.Customers == nil {
		return nil, errors.New("wallet service: customer repository is required")
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
	return &walletService{
		customers: deps.Customers,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// Credit adds money to the wallet, recording the closing balance and a ledger
// entry atomically with the balance change.
func (s *walletService) Credit(ctx context.Context, cmd WalletMovementCommand) (Customer, error) {
	return s.move(ctx, cmd, domain.WalletCredit)
}

// Debit removes money from the wallet. A debit exceeding the balance fails
// without recording anything.
func (s *walletService) Debit(ctx context.Context, cmd WalletMovementCommand) (Customer, error) {
	return s.move(ctx, cmd, domain.WalletDebit)
}

// Balance reports the customer's current wallet balance.
func (s *walletService) Balance(ctx context.Context, customerID string) (float64, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return 0, fmt.Errorf("%w: customer id is required", ErrWalletInvalidInput)
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return 0, s.translateRepoError(err)
	}
	return customer.WalletBalance, nil
}

func (s *walletService) move(ctx context.Context, cmd WalletMovementCommand, kind domain.WalletTransactionType) (Customer, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Customer{}, fmt.Errorf("%w: customer id is required", ErrWalletInvalidInput)
	}
	if cmd.Amount <= 0 {
		return Customer{}, fmt.Errorf("%w: amount must be positive", ErrWalletInvalidInput)
	}
	switch cmd.Category {
	case domain.TransactionTypeBill, domain.TransactionTypeRefund, domain.TransactionTypeReferral:
	default:
		return Customer{}, fmt.Errorf("%w: unknown transaction category %q", ErrWalletInvalidInput, cmd.Category)
	}

	now := s.clock()
	movement := repositories.WalletMovement{
		TransactionID: walletTransactionIDPrefix + s.newID(),
		Amount:        Round2(cmd.Amount),
		Type:          kind,
		Category:      cmd.Category,
		OrderID:       cloneStringPtr(cmd.OrderID),
		Description:   strings.TrimSpace(cmd.Description),
		Now:           now,
	}

	customer, err := s.customers.ApplyWalletMovement(ctx, customerID, movement)
	if err != nil {
		return Customer{}, s.translateRepoError(err)
	}

	s.logger(ctx, "wallet.movement.applied", map[string]any{
		"customer":    customerID,
		"transaction": movement.TransactionID,
		"type":        string(kind),
		"amount":      movement.Amount,
	})
	return customer, nil
}

func (s *walletService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrWalletCustomerNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrWalletInsufficientBalance, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
		}
	}
	return err
}
