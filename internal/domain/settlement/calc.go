package settlement

import (
	"github.com/shopspring/decimal"

	"trainerdesk/internal/domain"
)

var (
	half    = decimal.NewFromFloat(0.5)
	hundred = decimal.NewFromInt(100)
	six     = decimal.NewFromInt(6)
)

// SalesContribution is the revenue an entry adds to its month. Walk-in entries count half.
func SalesContribution(m domain.Member) decimal.Decimal {
	v := decimal.NewFromInt(int64(m.Sessions)).Mul(decimal.NewFromInt(m.UnitPrice))
	if m.Channel == domain.ChannelWalkIn {
		v = v.Mul(half)
	}
	return v
}

// Sales sums the contributions of entries, skipping exclude.
func Sales(entries []domain.Member, exclude *domain.Member) decimal.Decimal {
	total := decimal.Zero
	for _, m := range entries {
		if exclude != nil && m.ID == exclude.ID {
			continue
		}
		total = total.Add(SalesContribution(m))
	}
	return total
}

// lookup scans tiers (descending) and returns the first value whose threshold v reaches.
func lookup(tiers []Tier, v decimal.Decimal) (int64, bool) {
	for _, t := range tiers {
		if v.GreaterThanOrEqual(decimal.NewFromInt(t.Threshold)) {
			return t.Value, true
		}
	}
	return 0, false
}

func (s Settings) IncentiveFor(sales decimal.Decimal) int64 {
	v, _ := lookup(s.IncentiveTiers, sales)
	return v
}

// LessonFeeRate is the percentage paid on in-hours lesson revenue.
func (s Settings) LessonFeeRate(sales decimal.Decimal) int64 {
	if v, ok := lookup(s.LessonFeeTiers, sales); ok {
		return v
	}
	return s.LessonFeeFloor
}

// LessonFeeRateOther is the percentage paid on out-of-hours lesson revenue.
func (s Settings) LessonFeeRateOther(sales decimal.Decimal) int64 {
	if sales.GreaterThan(decimal.NewFromInt(s.OtherThreshold)) {
		return s.OtherRate
	}
	return s.LessonFeeRate(sales)
}

func (s Settings) MasterBonusFor(sixMonthSales decimal.Decimal) int64 {
	if sixMonthSales.Div(six).GreaterThanOrEqual(decimal.NewFromInt(s.MasterThreshold)) {
		return s.MasterBonus
	}
	return 0
}

func (s Settings) ClassCountBonus(count int, sales decimal.Decimal) int64 {
	if !sales.GreaterThan(decimal.NewFromInt(s.ClassBonusMinSales)) {
		return 0
	}
	v, _ := lookup(s.ClassBonusTiers, decimal.NewFromInt(int64(count)))
	return v
}

func (s Settings) OTIncentive(sessions int) int64 {
	if sessions < s.OTMinSessions {
		return 0
	}
	return int64(sessions) * s.OTRate
}

// DayoffDeduction charges every day off after the first.
func (s Settings) DayoffDeduction(days int) int64 {
	if days <= 1 {
		return 0
	}
	return int64(days-1) * s.DayoffRate
}

// LessonFee truncates base*rate/100 toward zero.
func LessonFee(base, rate int64) int64 {
	return decimal.NewFromInt(base).Mul(decimal.NewFromInt(rate)).Div(hundred).IntPart()
}
