package memory

import (
	"context"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
)

type accountRepository struct {
	store    *Store
	journal  *journal
	readOnly bool
}

func newAccountRepository(store *Store, j *journal, readOnly bool) interfaces.AccountRepository {
	return &accountRepository{store: store, journal: j, readOnly: readOnly}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*entities.Account, error) {
	balance, ok := r.store.accounts[id]
	if !ok {
		return nil, nil
	}
	return &entities.Account{ID: id, Balance: balance}, nil
}

func (r *accountRepository) Save(ctx context.Context, account *entities.Account) error {
	if r.readOnly {
		return errReadOnly
	}
	s, id := r.store, account.ID
	prev, existed := s.accounts[id]
	s.accounts[id] = account.Balance
	r.journal.record(func() {
		if !existed {
			delete(s.accounts, id)
			return
		}
		s.accounts[id] = prev
	})
	return nil
}
