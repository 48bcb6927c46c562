package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Policy holds business knobs that operators may tune per deployment.
type Policy struct {
	OTDeadlineDays        int `env:"OT_DEADLINE_DAYS" envDefault:"7"`
	OTExtensionDays       int `env:"OT_EXTENSION_DAYS" envDefault:"7"`
	BookingDefaultMinutes int `env:"BOOKING_DEFAULT_MINUTES" envDefault:"60"`
}

func DefaultPolicy() Policy {
	return Policy{OTDeadlineDays: 7, OTExtensionDays: 7, BookingDefaultMinutes: 60}
}

func LoadPolicy() (Policy, error) {
	var p Policy
	if err := env.Parse(&p); err != nil {
		return Policy{}, fmt.Errorf("parse policy env: %w", err)
	}
	if p.OTDeadlineDays <= 0 || p.OTExtensionDays <= 0 {
		return Policy{}, fmt.Errorf("OT_DEADLINE_DAYS and OT_EXTENSION_DAYS must be > 0")
	}
	if p.BookingDefaultMinutes <= 0 {
		return Policy{}, fmt.Errorf("BOOKING_DEFAULT_MINUTES must be > 0")
	}
	return p, nil
}

func (p Policy) OTDeadline() time.Duration {
	return time.Duration(p.OTDeadlineDays) * 24 * time.Hour
}

func (p Policy) OTExtension() time.Duration {
	return time.Duration(p.OTExtensionDays) * 24 * time.Hour
}

func (p Policy) BookingLength() time.Duration {
	return time.Duration(p.BookingDefaultMinutes) * time.Minute
}
