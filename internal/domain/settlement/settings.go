package settlement

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/BurntSushi/toml"
	"gorm.io/datatypes"

	"trainerdesk/internal/domain"
)

// PolicyVersion names the sales rule for corrected entries: refunded and transferred
// entries keep contributing with their reduced session count.
const PolicyVersion = "proportional-v2"

// Tier pays Value once sales (or a count) reach Threshold.
type Tier struct {
	Threshold int64 `json:"threshold" toml:"threshold"`
	Value     int64 `json:"value" toml:"value"`
}

// Settings is a snapshot of the settlement parameters. Callers get a fresh copy per
// operation, and tier tables are always sorted by descending threshold.
type Settings struct {
	PolicyVersion      string `json:"policy_version" toml:"policy_version"`
	IncentiveTiers     []Tier `json:"incentive_tiers" toml:"incentive_tiers"`
	LessonFeeTiers     []Tier `json:"lesson_fee_tiers" toml:"lesson_fee_tiers"`
	LessonFeeFloor     int64  `json:"lesson_fee_floor" toml:"lesson_fee_floor"`
	ClassBonusTiers    []Tier `json:"class_bonus_tiers" toml:"class_bonus_tiers"`
	ClassBonusMinSales int64  `json:"class_bonus_min_sales" toml:"class_bonus_min_sales"`
	MasterThreshold    int64  `json:"master_threshold" toml:"master_threshold"`
	MasterBonus        int64  `json:"master_bonus" toml:"master_bonus"`
	OtherThreshold     int64  `json:"other_threshold" toml:"other_threshold"`
	OtherRate          int64  `json:"other_rate" toml:"other_rate"`
	OTRate             int64  `json:"ot_rate" toml:"ot_rate"`
	OTMinSessions      int    `json:"ot_min_sessions" toml:"ot_min_sessions"`
	DayoffRate         int64  `json:"dayoff_rate" toml:"dayoff_rate"`
}

func DefaultSettings() Settings {
	return Settings{
		PolicyVersion: PolicyVersion,
		IncentiveTiers: []Tier{
			{20_000_000, 5_400_000},
			{15_000_000, 4_050_000},
			{12_000_000, 3_040_000},
			{10_000_000, 2_400_000},
			{8_500_000, 1_955_000},
			{6_500_000, 1_430_000},
			{4_500_000, 1_050_000},
			{3_000_000, 480_000},
		},
		LessonFeeTiers: []Tier{
			{20_000_000, 35},
			{15_000_000, 35},
			{12_000_000, 35},
			{10_000_000, 34},
			{8_500_000, 33},
			{6_500_000, 32},
			{4_500_000, 31},
			{3_000_000, 30},
		},
		LessonFeeFloor: 10,
		ClassBonusTiers: []Tier{
			{100, 1_000_000},
			{70, 800_000},
			{50, 600_000},
			{30, 400_000},
		},
		ClassBonusMinSales: 3_000_000,
		MasterThreshold:    9_000_000,
		MasterBonus:        300_000,
		OtherThreshold:     5_000_000,
		OtherRate:          40,
		OTRate:             5_000,
		OTMinSessions:      10,
		DayoffRate:         33_000,
	}
}

// normalized returns a copy with its own tier slices, sorted descending.
func (s Settings) normalized() Settings {
	out := s
	out.IncentiveTiers = sortTiers(s.IncentiveTiers)
	out.LessonFeeTiers = sortTiers(s.LessonFeeTiers)
	out.ClassBonusTiers = sortTiers(s.ClassBonusTiers)
	if out.PolicyVersion == "" {
		out.PolicyVersion = PolicyVersion
	}
	return out
}

func sortTiers(in []Tier) []Tier {
	out := slices.Clone(in)
	slices.SortFunc(out, func(a, b Tier) int {
		switch {
		case a.Threshold > b.Threshold:
			return -1
		case a.Threshold < b.Threshold:
			return 1
		}
		return 0
	})
	return out
}

func (s Settings) Validate() error {
	if len(s.IncentiveTiers) == 0 || len(s.LessonFeeTiers) == 0 {
		return fmt.Errorf("%w: incentive and lesson fee tiers are required", ErrInvalidSettings)
	}
	for _, table := range [][]Tier{s.IncentiveTiers, s.LessonFeeTiers, s.ClassBonusTiers} {
		for i, t := range table {
			if t.Threshold < 0 || t.Value < 0 {
				return fmt.Errorf("%w: negative tier", ErrInvalidSettings)
			}
			if i > 0 && table[i-1].Threshold == t.Threshold && table[i-1].Value != t.Value {
				return fmt.Errorf("%w: duplicate threshold %d", ErrInvalidSettings, t.Threshold)
			}
		}
	}
	for _, pct := range []int64{s.LessonFeeFloor, s.OtherRate} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: rate %d out of range", ErrInvalidSettings, pct)
		}
	}
	if s.MasterThreshold < 0 || s.MasterBonus < 0 || s.OtherThreshold < 0 || s.ClassBonusMinSales < 0 ||
		s.OTRate < 0 || s.OTMinSessions < 0 || s.DayoffRate < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidSettings)
	}
	return nil
}

// ParseSettingsTOML reads settings from r. Keys missing from the document keep their defaults.
func ParseSettingsTOML(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	s = s.normalized()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func settingsFromRow(row *domain.SalarySettingsRow) (Settings, error) {
	s := Settings{
		PolicyVersion:      row.PolicyVersion,
		LessonFeeFloor:     int64(row.LessonFeeFloorPercent),
		ClassBonusMinSales: row.ClassBonusMinSales,
		MasterThreshold:    row.MasterThreshold,
		MasterBonus:        row.MasterBonus,
		OtherThreshold:     row.OtherThreshold,
		OtherRate:          int64(row.OtherRate),
		OTRate:             row.OTRate,
		OTMinSessions:      row.OTMinSessions,
		DayoffRate:         row.DayoffRate,
	}
	for _, col := range []struct {
		raw datatypes.JSON
		dst *[]Tier
	}{
		{row.IncentiveTiers, &s.IncentiveTiers},
		{row.LessonFeeTiers, &s.LessonFeeTiers},
		{row.ClassBonusTiers, &s.ClassBonusTiers},
	} {
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return Settings{}, fmt.Errorf("decode tiers: %w", err)
		}
	}
	return s.normalized(), nil
}

func (s Settings) toRow() (*domain.SalarySettingsRow, error) {
	row := &domain.SalarySettingsRow{
		ID:                    1,
		PolicyVersion:         s.PolicyVersion,
		LessonFeeFloorPercent: int(s.LessonFeeFloor),
		ClassBonusMinSales:    s.ClassBonusMinSales,
		MasterThreshold:       s.MasterThreshold,
		MasterBonus:           s.MasterBonus,
		OtherThreshold:        s.OtherThreshold,
		OtherRate:             int(s.OtherRate),
		OTRate:                s.OTRate,
		OTMinSessions:         s.OTMinSessions,
		DayoffRate:            s.DayoffRate,
	}
	for _, col := range []struct {
		tiers []Tier
		dst   *datatypes.JSON
	}{
		{s.IncentiveTiers, &row.IncentiveTiers},
		{s.LessonFeeTiers, &row.LessonFeeTiers},
		{s.ClassBonusTiers, &row.ClassBonusTiers},
	} {
		b, err := json.Marshal(col.tiers)
		if err != nil {
			return nil, err
		}
		*col.dst = datatypes.JSON(b)
	}
	return row, nil
}
