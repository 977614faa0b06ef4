package purposes

import (
	"fmt"
	"sort"
)

// Purpose is a process-generic role an account plays in posting logic.
// Business code names purposes, never concrete account codes; the mapping
// table translates per company. The set is closed: an unknown purpose is a
// programming error, not a lookup miss.
type Purpose string

const (
	PurposeAR                      Purpose = "AR"
	PurposeAP                      Purpose = "AP"
	PurposeCash                    Purpose = "CASH"
	PurposeRevenue                 Purpose = "REVENUE"
	PurposeInventory               Purpose = "INVENTORY"
	PurposeCOGS                    Purpose = "COGS"
	PurposeTaxPayable              Purpose = "TAX_PAYABLE"
	PurposeFixedAsset              Purpose = "FIXED_ASSET"
	PurposeAccumulatedDepreciation Purpose = "ACCUMULATED_DEPRECIATION"
	PurposeDepreciationExpense     Purpose = "DEPRECIATION_EXPENSE"
	PurposeGainOnDisposal          Purpose = "GAIN_ON_DISPOSAL"
	PurposeLossOnDisposal          Purpose = "LOSS_ON_DISPOSAL"
	PurposeWagesExpense            Purpose = "WAGES_EXPENSE"
	PurposeWagesPayable            Purpose = "WAGES_PAYABLE"
	PurposeTaxWithheld             Purpose = "TAX_WITHHELD"
	PurposeBenefitsPayable         Purpose = "BENEFITS_PAYABLE"
)

var known = map[Purpose]struct{}{
	PurposeAR:                      {},
	PurposeAP:                      {},
	PurposeCash:                    {},
	PurposeRevenue:                 {},
	PurposeInventory:               {},
	PurposeCOGS:                    {},
	PurposeTaxPayable:              {},
	PurposeFixedAsset:              {},
	PurposeAccumulatedDepreciation: {},
	PurposeDepreciationExpense:     {},
	PurposeGainOnDisposal:          {},
	PurposeLossOnDisposal:          {},
	PurposeWagesExpense:            {},
	PurposeWagesPayable:            {},
	PurposeTaxWithheld:             {},
	PurposeBenefitsPayable:         {},
}

// All returns the closed purpose set in a stable order.
func All() []Purpose {
	all := make([]Purpose, 0, len(known))
	for p := range known {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// Known reports whether p belongs to the closed purpose set.
func (p Purpose) Known() bool {
	_, ok := known[p]
	return ok
}

// Validate returns an error for purposes outside the closed set.
func (p Purpose) Validate() error {
	if !p.Known() {
		return fmt.Errorf("ledger: unknown account purpose %q", string(p))
	}
	return nil
}
