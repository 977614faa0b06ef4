package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Account models a chart of accounts node. Accounts are never deleted,
// only deactivated, so historical journal lines always resolve.
type Account struct {
	ID        int64
	TenantID  int64
	CompanyID int64
	Code      string
	Name      string
	Type      AccountType
	Purpose   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
