package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
	"github.com/aurora-books/aurora-books/internal/posting"
)

const (
	// SourceModuleAcquisition tags acquisition postings.
	SourceModuleAcquisition = "assets:acquisition"
	// SourceModuleDepreciation tags batch depreciation postings.
	SourceModuleDepreciation = "assets:depreciation"
	// SourceModuleDisposal tags disposal postings.
	SourceModuleDisposal = "assets:disposal"

	periodLayout = "2006-01"
)

// PostingEngine is the slice of the posting engine assets need.
type PostingEngine interface {
	Post(ctx context.Context, doc posting.Document) (posting.PostedResult, error)
	Void(ctx context.Context, scope shared.Scope, sourceModule string, sourceID uuid.UUID, reason string) (posting.VoidResult, error)
}

// IdempotencyPort fences concurrent batch runs for the same period.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// RunResult summarises one monthly depreciation batch.
type RunResult struct {
	Period          string
	AssetsProcessed int
	TotalAmount     decimal.Decimal
	EntryID         int64
	CorrelationID   uuid.UUID
}

// Service owns fixed-asset postings: acquisition, the monthly depreciation
// batch, and disposal with gain/loss against net book value.
type Service struct {
	assets  AssetRepository
	records RecordRepository
	engine  PostingEngine
	idem    IdempotencyPort
	logger  *slog.Logger
}

func NewService(assetRepo AssetRepository, recordRepo RecordRepository, engine PostingEngine, idem IdempotencyPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{assets: assetRepo, records: recordRepo, engine: engine, idem: idem, logger: logger}
}

// PostAcquisition records the asset and posts debit Fixed Assets / credit
// the payment account for its cost. The asset row is created first; the
// journal link makes a re-post of the same asset id an ErrAlreadyPosted.
func (s *Service) PostAcquisition(ctx context.Context, asset FixedAsset, creditPurpose purposes.Purpose) (posting.PostedResult, error) {
	if err := asset.Validate(); err != nil {
		return posting.PostedResult{}, err
	}
	scope := shared.Scope{TenantID: asset.TenantID, CompanyID: asset.CompanyID}
	if err := scope.Validate(); err != nil {
		return posting.PostedResult{}, err
	}
	if creditPurpose == "" {
		creditPurpose = purposes.PurposeCash
	}

	created, err := s.assets.Create(ctx, asset)
	if err != nil {
		return posting.PostedResult{}, err
	}

	return s.engine.Post(ctx, posting.Document{
		Scope:        scope,
		SourceModule: SourceModuleAcquisition,
		SourceID:     created.ID,
		Date:         created.AcquiredAt,
		Memo:         fmt.Sprintf("Acquisition of %s", created.Name),
		Reference:    "FA-" + created.ID.String(),
		Legs: []posting.Leg{
			{Purpose: purposes.PurposeFixedAsset, Amount: created.Cost, Side: posting.SideDebit, Memo: created.Name},
			{Purpose: creditPurpose, Amount: created.Cost, Side: posting.SideCredit, Memo: "Asset payment"},
		},
	})
}

// RunMonthly depreciates every active asset for one period and posts the
// batch total as debit Depreciation Expense / credit Accumulated
// Depreciation. The run is idempotent per asset per period: existing
// records are skipped, never recomputed. A rerun that finds nothing new
// posts nothing.
func (s *Service) RunMonthly(ctx context.Context, scope shared.Scope, period string) (RunResult, error) {
	if err := scope.Validate(); err != nil {
		return RunResult{}, err
	}
	periodStart, err := time.Parse(periodLayout, period)
	if err != nil {
		return RunResult{}, fmt.Errorf("assets: invalid period %q: %w", period, err)
	}

	if s.idem != nil {
		key := fmt.Sprintf("depreciation:%d:%d:%s", scope.TenantID, scope.CompanyID, period)
		if err := s.idem.CheckAndInsert(ctx, key, "assets"); err != nil {
			return RunResult{}, err
		}
		defer func() { _ = s.idem.Delete(ctx, key) }()
	}

	active, err := s.assets.ListActive(ctx, scope)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{Period: period, TotalAmount: decimal.Zero}
	for _, asset := range active {
		amount, err := s.depreciateAsset(ctx, asset, period, periodStart)
		if err != nil {
			return RunResult{}, err
		}
		if amount.IsZero() {
			continue
		}
		result.AssetsProcessed++
		result.TotalAmount = result.TotalAmount.Add(amount)
	}

	if result.TotalAmount.IsZero() {
		s.logger.Info("depreciation run had nothing to post",
			slog.String("period", period),
			slog.Int64("tenant_id", scope.TenantID),
			slog.Int64("company_id", scope.CompanyID))
		return result, nil
	}

	posted, err := s.engine.Post(ctx, posting.Document{
		Scope:        scope,
		SourceModule: SourceModuleDepreciation,
		SourceID:     uuid.New(),
		Date:         periodStart,
		Memo:         fmt.Sprintf("Depreciation %s", period),
		Reference:    "DEP-" + period,
		Legs: []posting.Leg{
			{Purpose: purposes.PurposeDepreciationExpense, Amount: result.TotalAmount, Side: posting.SideDebit, Memo: "Periodic depreciation"},
			{Purpose: purposes.PurposeAccumulatedDepreciation, Amount: result.TotalAmount, Side: posting.SideCredit, Memo: "Accumulated depreciation"},
		},
	})
	if err != nil {
		return RunResult{}, err
	}
	result.EntryID = posted.EntryID
	result.CorrelationID = posted.CorrelationID
	return result, nil
}

// depreciateAsset appends one record for (asset, period), returning the
// period amount or zero when the period is skipped.
func (s *Service) depreciateAsset(ctx context.Context, asset FixedAsset, period string, periodStart time.Time) (decimal.Decimal, error) {
	periodIndex := monthsBetween(asset.AcquiredAt, periodStart)
	if periodIndex < 0 {
		return decimal.Zero, nil
	}

	exists, err := s.records.Exists(ctx, asset.ID, period)
	if err != nil {
		return decimal.Zero, err
	}
	if exists {
		return decimal.Zero, nil
	}

	last, err := s.records.LastAccumulated(ctx, asset.ID)
	if err != nil {
		return decimal.Zero, err
	}
	remaining := asset.DepreciableBase().Sub(last.Accumulated)
	if !remaining.IsPositive() {
		return decimal.Zero, nil
	}

	amount := MonthlyAmount(asset.Cost, asset.Salvage, asset.LifeYears, asset.Method, periodIndex)
	if amount.GreaterThan(remaining) {
		amount = remaining
	}
	if !amount.IsPositive() {
		return decimal.Zero, nil
	}

	_, err = s.records.Insert(ctx, DepreciationRecord{
		AssetID:     asset.ID,
		Period:      period,
		Amount:      amount,
		Accumulated: last.Accumulated.Add(amount),
	})
	if err != nil {
		if errors.Is(err, ErrRecordExists) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return amount, nil
}

// PostDisposal retires the asset: the accumulated depreciation and the
// asset cost leave the books, cash enters for the proceeds, and the
// difference against net book value lands on gain or loss.
func (s *Service) PostDisposal(ctx context.Context, scope shared.Scope, assetID uuid.UUID, proceeds decimal.Decimal, date time.Time) (posting.PostedResult, error) {
	if err := scope.Validate(); err != nil {
		return posting.PostedResult{}, err
	}
	if proceeds.IsNegative() {
		return posting.PostedResult{}, errors.New("assets: proceeds must be non-negative")
	}
	asset, err := s.assets.Get(ctx, scope, assetID)
	if err != nil {
		return posting.PostedResult{}, err
	}
	if asset.Status == AssetStatusDisposed {
		return posting.PostedResult{}, ErrAssetDisposed
	}

	last, err := s.records.LastAccumulated(ctx, assetID)
	if err != nil {
		return posting.PostedResult{}, err
	}
	accumulated := last.Accumulated
	netBookValue := asset.Cost.Sub(accumulated)
	gain := proceeds.Round(2).Sub(netBookValue)

	legs := []posting.Leg{
		{Purpose: purposes.PurposeCash, Amount: proceeds, Side: posting.SideDebit, Memo: "Disposal proceeds"},
		{Purpose: purposes.PurposeAccumulatedDepreciation, Amount: accumulated, Side: posting.SideDebit, Memo: "Reverse accumulated depreciation"},
		{Purpose: purposes.PurposeFixedAsset, Amount: asset.Cost, Side: posting.SideCredit, Memo: "Retire asset cost"},
	}
	switch {
	case gain.IsPositive():
		legs = append(legs, posting.Leg{Purpose: purposes.PurposeGainOnDisposal, Amount: gain, Side: posting.SideCredit, Memo: "Gain on disposal"})
	case gain.IsNegative():
		legs = append(legs, posting.Leg{Purpose: purposes.PurposeLossOnDisposal, Amount: gain.Neg(), Side: posting.SideDebit, Memo: "Loss on disposal"})
	}

	posted, err := s.engine.Post(ctx, posting.Document{
		Scope:        scope,
		SourceModule: SourceModuleDisposal,
		SourceID:     assetID,
		Date:         date,
		Memo:         fmt.Sprintf("Disposal of %s", asset.Name),
		Reference:    "FA-DISP-" + assetID.String(),
		Legs:         legs,
	})
	if err != nil {
		return posting.PostedResult{}, err
	}
	if err := s.assets.MarkDisposed(ctx, scope, assetID); err != nil {
		return posting.PostedResult{}, err
	}
	return posted, nil
}

// monthsBetween counts whole months from the acquisition month to the
// period month. Depreciation year boundaries derive from elapsed periods
// since acquisition, not calendar years.
func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
