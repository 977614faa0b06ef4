package shared

import "errors"

// Scope identifies the tenant and company a ledger record belongs to.
// Every read and write in the posting core is scoped this way.
type Scope struct {
	TenantID  int64
	CompanyID int64
}

// Validate ensures both identifiers are present.
func (s Scope) Validate() error {
	if s.TenantID == 0 {
		return errors.New("ledger: tenant required")
	}
	if s.CompanyID == 0 {
		return errors.New("ledger: company required")
	}
	return nil
}
