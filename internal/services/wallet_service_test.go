package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/repositories"
)

func TestWalletCreditAppliesMovement(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	var applied repositories.WalletMovement

	svc, err := NewWalletService(WalletServiceDeps{
		Customers: &stubCustomerRepo{
			walletFunc: func(ctx context.Context, customerID string, movement repositories.WalletMovement) (domain.Customer, error) {
				applied = movement
				return domain.Customer{ID: customerID, WalletBalance: 150.5}, nil
			},
		},
		Clock:       fixedClock(now),
		IDGenerator: sequenceIDs("01WTX"),
	})
	if err != nil {
		t.Fatalf("NewWalletService: %v", err)
	}

	customer, err := svc.Credit(context.Background(), WalletMovementCommand{
		CustomerID:  "cust-1",
		Amount:      100.505,
		Category:    domain.TransactionTypeRefund,
		OrderID:     strPtr("FMT-2025-000042"),
		Description: "  Refund for cancelled order  ",
	})
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}

	if applied.TransactionID != "wtx_01WTX" {
		t.Fatalf("transaction id = %q, want wtx_01WTX", applied.TransactionID)
	}
	if applied.Type != domain.WalletCredit {
		t.Fatalf("type = %s, want credit", applied.Type)
	}
	if applied.Amount != 100.51 {
		t.Fatalf("amount = %.4f, want rounded 100.51", applied.Amount)
	}
	if applied.Description != "Refund for cancelled order" {
		t.Fatalf("description = %q, want trimmed", applied.Description)
	}
	if !applied.Now.Equal(now) {
		t.Fatalf("movement time = %v, want %v", applied.Now, now)
	}
	if customer.WalletBalance != 150.5 {
		t.Fatalf("balance = %.2f, want the repository's closing balance", customer.WalletBalance)
	}
}

func TestWalletDebitInsufficientBalance(t *testing.T) {
	svc, err := NewWalletService(WalletServiceDeps{
		Customers: &stubCustomerRepo{
			walletFunc: func(ctx context.Context, customerID string, movement repositories.WalletMovement) (domain.Customer, error) {
				return domain.Customer{}, conflictErr("balance 20.00 below debit 260.00")
			},
		},
	})
	if err != nil {
		t.Fatalf("NewWalletService: %v", err)
	}

	_, err = svc.Debit(context.Background(), WalletMovementCommand{
		CustomerID: "cust-1",
		Amount:     260,
		Category:   domain.TransactionTypeBill,
	})
	if !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("Debit error = %v, want %v", err, ErrWalletInsufficientBalance)
	}
}

func TestWalletMovementValidation(t *testing.T) {
	svc, err := NewWalletService(WalletServiceDeps{Customers: &stubCustomerRepo{}})
	if err != nil {
		t.Fatalf("NewWalletService: %v", err)
	}

	tests := []struct {
		name string
		cmd  WalletMovementCommand
	}{
		{"missing customer", WalletMovementCommand{Amount: 10, Category: domain.TransactionTypeBill}},
		{"zero amount", WalletMovementCommand{CustomerID: "cust-1", Category: domain.TransactionTypeBill}},
		{"negative amount", WalletMovementCommand{CustomerID: "cust-1", Amount: -5, Category: domain.TransactionTypeBill}},
		{"unknown category", WalletMovementCommand{CustomerID: "cust-1", Amount: 10, Category: "Mystery"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Credit(context.Background(), tc.cmd); !errors.Is(err, ErrWalletInvalidInput) {
				t.Fatalf("Credit error = %v, want %v", err, ErrWalletInvalidInput)
			}
		})
	}
}

func TestWalletBalance(t *testing.T) {
	svc, err := NewWalletService(WalletServiceDeps{
		Customers: &stubCustomerRepo{
			findFunc: func(ctx context.Context, customerID string) (domain.Customer, error) {
				return domain.Customer{ID: customerID, WalletBalance: 88.25}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("NewWalletService: %v", err)
	}

	balance, err := svc.Balance(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 88.25 {
		t.Fatalf("balance = %.2f, want 88.25", balance)
	}
}

func TestWalletBalanceUnknownCustomer(t *testing.T) {
	svc, err := NewWalletService(WalletServiceDeps{
		Customers: &stubCustomerRepo{
			findFunc: func(ctx context.Context, customerID string) (domain.Customer, error) {
				return domain.Customer{}, notFoundErr("no such customer")
			},
		},
	})
	if err != nil {
		t.Fatalf("NewWalletService: %v", err)
	}

	if _, err := svc.Balance(context.Background(), "cust-1"); !errors.Is(err, ErrWalletCustomerNotFound) {
		t.Fatalf("Balance error = %v, want %v", err, ErrWalletCustomerNotFound)
	}
}

func TestNewWalletServiceRequiresCustomers(t *testing.T) {
	if _, err := NewWalletService(WalletServiceDeps{}); err == nil || !strings.Contains(err.Error(), "customer repository") {
		t.Fatalf("NewWalletService error = %v, want customer repository requirement", err)
	}
}
