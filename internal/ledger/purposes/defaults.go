package purposes

import "github.com/aurora-books/aurora-books/internal/ledger/accounts"

// defaultDefinition describes the account created when a purpose is
// resolved with auto-provisioning enabled and no mapping exists yet.
type defaultDefinition struct {
	Code string
	Name string
	Type accounts.AccountType
}

var defaults = map[Purpose]defaultDefinition{
	PurposeAR:                      {Code: "1200", Name: "Accounts Receivable", Type: accounts.AccountTypeAsset},
	PurposeAP:                      {Code: "2100", Name: "Accounts Payable", Type: accounts.AccountTypeLiability},
	PurposeCash:                    {Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset},
	PurposeRevenue:                 {Code: "4000", Name: "Sales Revenue", Type: accounts.AccountTypeRevenue},
	PurposeInventory:               {Code: "1300", Name: "Inventory", Type: accounts.AccountTypeAsset},
	PurposeCOGS:                    {Code: "5000", Name: "Cost of Goods Sold", Type: accounts.AccountTypeExpense},
	PurposeTaxPayable:              {Code: "2200", Name: "Tax Payable", Type: accounts.AccountTypeLiability},
	PurposeFixedAsset:              {Code: "1500", Name: "Fixed Assets", Type: accounts.AccountTypeAsset},
	PurposeAccumulatedDepreciation: {Code: "1590", Name: "Accumulated Depreciation", Type: accounts.AccountTypeAsset},
	PurposeDepreciationExpense:     {Code: "6100", Name: "Depreciation Expense", Type: accounts.AccountTypeExpense},
	PurposeGainOnDisposal:          {Code: "4900", Name: "Gain on Asset Disposal", Type: accounts.AccountTypeRevenue},
	PurposeLossOnDisposal:          {Code: "6900", Name: "Loss on Asset Disposal", Type: accounts.AccountTypeExpense},
	PurposeWagesExpense:            {Code: "6000", Name: "Wages Expense", Type: accounts.AccountTypeExpense},
	PurposeWagesPayable:            {Code: "2300", Name: "Wages Payable", Type: accounts.AccountTypeLiability},
	PurposeTaxWithheld:             {Code: "2310", Name: "Employee Tax Withheld", Type: accounts.AccountTypeLiability},
	PurposeBenefitsPayable:         {Code: "2320", Name: "Benefits Payable", Type: accounts.AccountTypeLiability},
}
