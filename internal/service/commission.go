package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/config"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/queue"
	"github.com/iliyamo/cashmais/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// Split turns a purchase's cashback into commission amounts.  The purchase
// confirmation and the distributor both use it, so the estimate shown to
// the cashier matches what is later credited.
type Split struct {
	PoolPct    decimal.Decimal
	BuyerPct   decimal.Decimal
	SponsorPct decimal.Decimal
}

// NewSplit builds a Split from the commission configuration.
func NewSplit(cfg config.CommissionConfig) Split {
	return Split{PoolPct: cfg.PoolPct, BuyerPct: cfg.BuyerPct, SponsorPct: cfg.SponsorPct}
}

// Pool is the distributable share of cashback.
func (s Split) Pool(cashback decimal.Decimal) decimal.Decimal {
	return cashback.Mul(s.PoolPct).Div(hundred)
}

// Buyer is the level 0 amount.
func (s Split) Buyer(cashback decimal.Decimal) decimal.Decimal {
	return s.Pool(cashback).Mul(s.BuyerPct).Div(hundred)
}

// Sponsor is the level 1 amount; zero disables sponsor credits.
func (s Split) Sponsor(cashback decimal.Decimal) decimal.Decimal {
	return s.Pool(cashback).Mul(s.SponsorPct).Div(hundred)
}

// IdentityLookup resolves identities by id.
type IdentityLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Identity, error)
}

// CommissionWriter persists credits idempotently.
type CommissionWriter interface {
	Credit(ctx context.Context, cs []model.Commission) (int64, error)
}

// CommissionDistributor credits the buying affiliate and, when configured,
// their direct sponsor.  It never walks further up the network.
type CommissionDistributor struct {
	Identities IdentityLookup
	Credits    CommissionWriter
	Split      Split
}

func NewCommissionDistributor(ids IdentityLookup, credits CommissionWriter, split Split) *CommissionDistributor {
	return &CommissionDistributor{Identities: ids, Credits: credits, Split: split}
}

// Distribute handles one commission request.  Non-affiliate buyers and
// zero amounts are a no-op.  Delivering the same request twice writes no
// additional rows.
func (d *CommissionDistributor) Distribute(ctx context.Context, ev queue.CommissionRequestedEvent) error {
	if ev.BuyerKind != "" && ev.BuyerKind != string(model.KindAffiliate) {
		return nil
	}
	buyer, err := d.Identities.GetByID(ctx, ev.BuyerIdentityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn().Uint64("purchase_id", ev.PurchaseID).Uint64("buyer_id", ev.BuyerIdentityID).
				Msg("commission: buyer identity missing; skipping")
			return nil
		}
		return fmt.Errorf("load buyer: %w", err)
	}
	if buyer.Kind != model.KindAffiliate {
		return nil
	}

	credits := make([]model.Commission, 0, 2)
	if amt := d.Split.Buyer(ev.Cashback); amt.IsPositive() {
		credits = append(credits, model.Commission{
			PurchaseID: ev.PurchaseID, BeneficiaryID: buyer.ID, Level: model.LevelBuyer, Amount: amt,
		})
	}
	if amt := d.Split.Sponsor(ev.Cashback); amt.IsPositive() && buyer.SponsorID != nil {
		sponsor, err := d.Identities.GetByID(ctx, *buyer.SponsorID)
		switch {
		case err == nil && sponsor.IsActive:
			credits = append(credits, model.Commission{
				PurchaseID: ev.PurchaseID, BeneficiaryID: sponsor.ID, Level: model.LevelSponsor, Amount: amt,
			})
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("load sponsor: %w", err)
		}
	}
	if len(credits) == 0 {
		return nil
	}

	n, err := d.Credits.Credit(ctx, credits)
	if err != nil {
		return fmt.Errorf("credit commissions: %w", err)
	}
	log.Info().Uint64("purchase_id", ev.PurchaseID).Int64("written", n).Int("requested", len(credits)).
		Msg("commission: distributed")
	return nil
}
