package shared

import "errors"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrEmptyDocument indicates all document legs rounded to zero.
	ErrEmptyDocument = errors.New("ledger: document has no non-zero legs")
	// ErrAlreadyPosted indicates the source document was posted before.
	ErrAlreadyPosted = errors.New("ledger: source document already posted")
	// ErrAlreadyVoided indicates the source document was voided before.
	ErrAlreadyVoided = errors.New("ledger: source document already voided")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("ledger: journal entry not found")
	// ErrInvalidStatus indicates a non-monotonic status transition.
	ErrInvalidStatus = errors.New("ledger: invalid status transition")
	// ErrMissingAccounts indicates one or more purposes have no account mapping.
	ErrMissingAccounts = errors.New("ledger: missing account mappings")
	// ErrMappingNotFound indicates a single account mapping is missing.
	ErrMappingNotFound = errors.New("ledger: account mapping not found")
	// ErrAccountNotFound indicates a missing account row.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("ledger: source link conflict")
)
