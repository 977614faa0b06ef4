package purposes

import "time"

// AccountMapping links a purpose to a concrete ledger account per company.
type AccountMapping struct {
	TenantID  int64
	CompanyID int64
	Purpose   Purpose
	AccountID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
