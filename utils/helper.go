package utils

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]struct{}, len(slice))
	out := make([]T, 0, len(slice))
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseISKAmount parses payout amounts the way pilots write them:
// "20000000", "20,000,000", "20m", "1.5b", "150M ISK", "isk 750k".
func ParseISKAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.ToLower(strings.TrimSpace(s))
	cleaned = strings.TrimPrefix(cleaned, "isk")
	cleaned = strings.TrimSuffix(cleaned, "isk")
	cleaned = strings.TrimSpace(cleaned)

	mult := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(cleaned, "b"):
		mult = decimal.NewFromInt(1_000_000_000)
		cleaned = strings.TrimSuffix(cleaned, "b")
	case strings.HasSuffix(cleaned, "m"):
		mult = decimal.NewFromInt(1_000_000)
		cleaned = strings.TrimSuffix(cleaned, "m")
	case strings.HasSuffix(cleaned, "k"):
		mult = decimal.NewFromInt(1_000)
		cleaned = strings.TrimSuffix(cleaned, "k")
	}

	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.New("invalid amount: " + s)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("amount cannot be negative: " + s)
	}
	return d.Mul(mult), nil
}
