package mocks

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
)

// StubRateSource is a function-field implementation of
// usecase.RateSource for tests that do not need call assertions.
type StubRateSource struct {
	RateFunc func(ctx context.Context, day time.Time, base, quote string) (decimal.Decimal, error)

	Calls int
}

func (s *StubRateSource) Rate(ctx context.Context, day time.Time, base, quote string) (decimal.Decimal, error) {
	s.Calls++
	if s.RateFunc != nil {
		return s.RateFunc(ctx, day, base, quote)
	}
	return decimal.NewFromInt(1), nil
}

// StubIDGenerator returns predictable sequential ids.
type StubIDGenerator struct {
	Prefix string
	n      int
}

func (s *StubIDGenerator) Generate() string {
	s.n++
	prefix := s.Prefix
	if prefix == "" {
		prefix = "generated-id"
	}
	return prefix + "-" + strconv.Itoa(s.n)
}

// SliceRowSource streams a fixed row slice and then io.EOF.
type SliceRowSource struct {
	Rows []domain.Row
	next int
}

func (s *SliceRowSource) Next() (domain.Row, error) {
	if s.next >= len(s.Rows) {
		return domain.Row{}, io.EOF
	}
	row := s.Rows[s.next]
	s.next++
	return row, nil
}
