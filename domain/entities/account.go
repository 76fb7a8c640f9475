package entities

// EscrowAccountID is the ledger account holding staked value until claimed
const EscrowAccountID = "escrow"

// Account is a balance holder that stakes are debited from and payouts credited to
type Account struct {
	ID      string `db:"id"`
	Balance int64  `db:"balance"`
}
