package services

import (
	"context"
	"fmt"
	"math"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
	"betledger/domain/ledgererr"

	log "github.com/sirupsen/logrus"
)

type escrowService struct {
	accountRepo interfaces.AccountRepository
}

// NewEscrowService creates the account service that moves stakes through the escrow account
func NewEscrowService(accountRepo interfaces.AccountRepository) interfaces.AccountService {
	return &escrowService{accountRepo: accountRepo}
}

// Debit moves amount from the account into escrow
func (s *escrowService) Debit(ctx context.Context, account string, amount int64) error {
	if amount <= 0 {
		return ledgererr.New(ledgererr.ReasonInvalidAmount, "debit amount must be positive, got %d", amount)
	}
	if account == entities.EscrowAccountID {
		return ledgererr.New(ledgererr.ReasonTransferFailed, "escrow cannot stake")
	}

	from, err := s.load(ctx, account)
	if err != nil {
		return err
	}
	if from.Balance < amount {
		return ledgererr.New(ledgererr.ReasonInsufficientFunds, "account %s has %d, needs %d", account, from.Balance, amount)
	}
	return s.move(ctx, from, entities.EscrowAccountID, amount)
}

// Credit moves amount from escrow to the account
func (s *escrowService) Credit(ctx context.Context, account string, amount int64) error {
	if amount < 0 {
		return ledgererr.New(ledgererr.ReasonInvalidAmount, "credit amount must not be negative, got %d", amount)
	}
	if amount == 0 {
		return nil
	}

	escrow, err := s.load(ctx, entities.EscrowAccountID)
	if err != nil {
		return err
	}
	if escrow.Balance < amount {
		return ledgererr.Wrap(ledgererr.ReasonTransferFailed, ledgererr.ErrInsufficientFunds,
			"escrow holds %d, payout needs %d", escrow.Balance, amount)
	}
	return s.move(ctx, escrow, account, amount)
}

// Deposit adds amount to an account, creating it when needed
func (s *escrowService) Deposit(ctx context.Context, account string, amount int64) (*entities.Account, error) {
	if amount <= 0 {
		return nil, ledgererr.New(ledgererr.ReasonInvalidAmount, "deposit amount must be positive, got %d", amount)
	}
	if account == "" {
		return nil, ledgererr.New(ledgererr.ReasonTransferFailed, "account id is required")
	}

	acc, err := s.load(ctx, account)
	if err != nil {
		return nil, err
	}
	if acc.Balance > math.MaxInt64-amount {
		return nil, ledgererr.New(ledgererr.ReasonOverflow, "deposit overflows account %s", account)
	}
	acc.Balance += amount
	if err := s.accountRepo.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	log.WithFields(log.Fields{
		"account": account,
		"amount":  amount,
		"balance": acc.Balance,
	}).Info("Deposited to account")
	return acc, nil
}

func (s *escrowService) load(ctx context.Context, id string) (*entities.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	if acc == nil {
		acc = &entities.Account{ID: id}
	}
	return acc, nil
}

func (s *escrowService) move(ctx context.Context, from *entities.Account, toID string, amount int64) error {
	to, err := s.load(ctx, toID)
	if err != nil {
		return err
	}
	if to.Balance > math.MaxInt64-amount {
		return ledgererr.New(ledgererr.ReasonOverflow, "transfer overflows account %s", toID)
	}

	from.Balance -= amount
	to.Balance += amount
	if err := s.accountRepo.Save(ctx, from); err != nil {
		return ledgererr.Wrap(ledgererr.ReasonTransferFailed, err, "failed to debit %s", from.ID)
	}
	if err := s.accountRepo.Save(ctx, to); err != nil {
		return ledgererr.Wrap(ledgererr.ReasonTransferFailed, err, "failed to credit %s", to.ID)
	}
	return nil
}
