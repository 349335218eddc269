package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
)

type stubCustomers struct {
	byCPF map[string]model.Identity
	err   error
	calls int
}

func (s *stubCustomers) FindCustomerByCPF(_ context.Context, cpf string) (model.Identity, error) {
	s.calls++
	if s.err != nil {
		return model.Identity{}, s.err
	}
	id, ok := s.byCPF[cpf]
	if !ok {
		return model.Identity{}, repository.ErrNotFound
	}
	return id, nil
}

type stubSettings struct {
	pct   decimal.Decimal
	found bool
}

func (s stubSettings) CashbackPercentage(context.Context, uint64) (decimal.Decimal, bool, error) {
	return s.pct, s.found, nil
}

type stubLedger struct {
	entries []repository.LedgerEntry
	err     error
}

func (s *stubLedger) Record(_ context.Context, e repository.LedgerEntry) (repository.LedgerResult, error) {
	if s.err != nil {
		return repository.LedgerResult{}, s.err
	}
	s.entries = append(s.entries, e)
	return repository.LedgerResult{PurchaseID: uint64(len(s.entries))}, nil
}

var testSplit = Split{PoolPct: decimal.NewFromInt(70), BuyerPct: decimal.NewFromInt(10), SponsorPct: decimal.Zero}

func newRecorder(c *stubCustomers, s stubSettings, l *stubLedger) *PurchaseRecorder {
	r := NewPurchaseRecorder(c, s, l, testSplit, decimal.NewFromInt(5))
	r.Now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	return r
}

func cashier() model.Cashier {
	return model.Cashier{ID: 3, CompanyID: 9, CPF: "111.222.333-44", Name: "Ana"}
}

func TestRecordComputesCashbackAndPersists(t *testing.T) {
	customers := &stubCustomers{byCPF: map[string]model.Identity{
		"98765432100": {ID: 42, Kind: model.KindUser, CPF: "98765432100", FullName: "Bruno", IsActive: true},
	}}
	ledger := &stubLedger{}
	rec := newRecorder(customers, stubSettings{pct: decimal.NewFromFloat(7.5), found: true}, ledger)

	got, err := rec.Record(context.Background(), PurchaseInput{
		Cashier: cashier(), CustomerCPF: "987.654.321-00", Value: decimal.RequireFromString("33.33"),
	})
	require.NoError(t, err)

	// 33.33 * 7.5 / 100 = 2.49975, kept unrounded.
	assert.True(t, got.Cashback.Equal(decimal.RequireFromString("2.49975")), got.Cashback.String())
	assert.Equal(t, "Bruno", got.CustomerName)
	assert.Equal(t, uint64(1), got.PurchaseID)
	assert.True(t, got.CommissionEstimate.IsZero())
	assert.Contains(t, got.Message, "R$ 2.50")

	require.Len(t, ledger.entries, 1)
	e := ledger.entries[0]
	assert.Equal(t, "98765432100", e.CustomerCPF)
	assert.Equal(t, uint64(9), e.CompanyID)
	assert.Equal(t, uint64(3), e.CashierID)
	assert.True(t, e.Cashback.Equal(got.Cashback))
}

func TestRecordUsesDefaultPercentage(t *testing.T) {
	customers := &stubCustomers{byCPF: map[string]model.Identity{
		"98765432100": {ID: 42, Kind: model.KindUser, CPF: "98765432100"},
	}}
	ledger := &stubLedger{}
	rec := newRecorder(customers, stubSettings{}, ledger)

	got, err := rec.Record(context.Background(), PurchaseInput{
		Cashier: cashier(), CustomerCPF: "98765432100", Value: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.True(t, got.Cashback.Equal(decimal.NewFromInt(5)))
	assert.True(t, ledger.entries[0].Percentage.Equal(decimal.NewFromInt(5)))
	// Display falls back to the CPF when there is no name.
	assert.Equal(t, "98765432100", got.CustomerName)
}

func TestRecordRejectsOwnCPF(t *testing.T) {
	customers := &stubCustomers{}
	ledger := &stubLedger{}
	rec := newRecorder(customers, stubSettings{}, ledger)

	for _, in := range []string{"11122233344", "111.222.333-44", " 111 222 333 44 "} {
		_, err := rec.Record(context.Background(), PurchaseInput{
			Cashier: cashier(), CustomerCPF: in, Value: decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, ErrSelfRedemption, in)
	}
	assert.Zero(t, customers.calls)
	assert.Empty(t, ledger.entries)
}

func TestRecordUnknownCustomer(t *testing.T) {
	ledger := &stubLedger{}
	rec := newRecorder(&stubCustomers{}, stubSettings{}, ledger)

	_, err := rec.Record(context.Background(), PurchaseInput{
		Cashier: cashier(), CustomerCPF: "00000000000", Value: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Empty(t, ledger.entries)
}

func TestRecordRejectsTinyValue(t *testing.T) {
	rec := newRecorder(&stubCustomers{}, stubSettings{}, &stubLedger{})
	for _, v := range []string{"0", "-5", "0.009"} {
		_, err := rec.Record(context.Background(), PurchaseInput{
			Cashier: cashier(), CustomerCPF: "98765432100", Value: decimal.RequireFromString(v),
		})
		assert.ErrorIs(t, err, ErrInvalidValue, v)
	}
}

func TestRecordRejectsSubCentValue(t *testing.T) {
	customers := &stubCustomers{byCPF: map[string]model.Identity{"98765432100": {ID: 1, Kind: model.KindUser}}}
	ledger := &stubLedger{}
	rec := newRecorder(customers, stubSettings{}, ledger)

	_, err := rec.Record(context.Background(), PurchaseInput{
		Cashier: cashier(), CustomerCPF: "98765432100", Value: decimal.RequireFromString("10.005"),
	})
	assert.ErrorIs(t, err, ErrValuePrecision)
	assert.Empty(t, ledger.entries)
	assert.Zero(t, customers.calls)
}

func TestRecordRejectsOversizedValue(t *testing.T) {
	ledger := &stubLedger{}
	rec := newRecorder(&stubCustomers{}, stubSettings{}, ledger)

	_, err := rec.Record(context.Background(), PurchaseInput{
		Cashier: cashier(), CustomerCPF: "98765432100", Value: decimal.RequireFromString("1000000000000"),
	})
	assert.ErrorIs(t, err, ErrValueTooLarge)
	assert.Empty(t, ledger.entries)
}

func TestValidateValue(t *testing.T) {
	for _, v := range []string{"0.01", "10.5", "10.50", "10.500", "999999999999.99"} {
		assert.NoError(t, ValidateValue(decimal.RequireFromString(v)), v)
	}
	assert.ErrorIs(t, ValidateValue(decimal.RequireFromString("0.001")), ErrInvalidValue)
	assert.ErrorIs(t, ValidateValue(decimal.RequireFromString("10.005")), ErrValuePrecision)
	assert.ErrorIs(t, ValidateValue(decimal.RequireFromString("1000000000000.00")), ErrValueTooLarge)
}

// Stored purchase_value must reproduce the stored cashback exactly.
func TestRecordedValueMatchesCashback(t *testing.T) {
	customers := &stubCustomers{byCPF: map[string]model.Identity{"98765432100": {ID: 1, Kind: model.KindUser}}}
	ledger := &stubLedger{}
	rec := newRecorder(customers, stubSettings{pct: decimal.NewFromInt(5), found: true}, ledger)

	_, err := rec.Record(context.Background(), PurchaseInput{
		Cashier: cashier(), CustomerCPF: "98765432100", Value: decimal.RequireFromString("10.01"),
	})
	require.NoError(t, err)
	e := ledger.entries[0]
	stored := decimal.RequireFromString(e.Value.StringFixed(2))
	assert.True(t, Cashback(stored, e.Percentage).Equal(e.Cashback), e.Cashback.String())
}

func TestRecordAffiliateGetsCommissionEstimate(t *testing.T) {
	customers := &stubCustomers{byCPF: map[string]model.Identity{
		"98765432100": {ID: 7, Kind: model.KindAffiliate, CPF: "98765432100", FullName: "Carla"},
	}}
	rec := newRecorder(customers, stubSettings{pct: decimal.NewFromInt(10), found: true}, &stubLedger{})

	got, err := rec.Record(context.Background(), PurchaseInput{
		Cashier: cashier(), CustomerCPF: "98765432100", Value: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	// cashback 20, pool 14, buyer 10% of pool.
	assert.True(t, got.CommissionEstimate.Equal(decimal.RequireFromString("1.4")), got.CommissionEstimate.String())
	assert.True(t, got.CommissionEstimate.Equal(testSplit.Buyer(got.Cashback)))
	assert.Contains(t, got.Message, "Estimated commission: R$ 1.40")
}

func TestRecordPropagatesLedgerFailure(t *testing.T) {
	customers := &stubCustomers{byCPF: map[string]model.Identity{"98765432100": {ID: 1, Kind: model.KindUser}}}
	rec := newRecorder(customers, stubSettings{}, &stubLedger{err: errors.New("deadlock")})

	_, err := rec.Record(context.Background(), PurchaseInput{
		Cashier: cashier(), CustomerCPF: "98765432100", Value: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCustomerNotFound)
}

func TestCashbackIsExact(t *testing.T) {
	cases := []struct{ v, p, want string }{
		{"100", "5", "5"},
		{"200", "10", "20"},
		{"0.01", "1", "0.0001"},
		{"19.99", "3.33", "0.665667"},
	}
	for _, c := range cases {
		got := Cashback(decimal.RequireFromString(c.v), decimal.RequireFromString(c.p))
		assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "%s*%s: %s", c.v, c.p, got)
	}
}
