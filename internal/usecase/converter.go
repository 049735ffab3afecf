package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/iho/cake2ct/internal/domain"
)

// State is the phase of a conversion run. Phases advance in a fixed
// order and never go back.
type State int

const (
	StateStreaming State = iota
	StateDraining
	StateAggregating
	StateConsolidating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateAggregating:
		return "aggregating"
	case StateConsolidating:
		return "consolidating"
	default:
		return "done"
	}
}

// Result is the outcome of one conversion run.
type Result struct {
	RunID    string
	Entries  []domain.Entry
	Failures []domain.Failure
	RowsRead int
	Skipped  int
}

// Converter drives one conversion run: it streams rows through the
// mapper, buffers rows claimed by a correlation family, resolves the
// buckets after the stream ends and optionally consolidates staking
// income. All run state is owned by the converter instance, so
// repeated runs within one process are independent.
type Converter struct {
	opts         Options
	mapper       *Mapper
	consolidator Consolidator
	idGen        IDGenerator
	log          zerolog.Logger
}

// NewConverter creates a Converter.
func NewConverter(opts Options, rates RateSource, idGen IDGenerator, log zerolog.Logger) *Converter {
	valuation := NewValuation(opts, rates, log)
	return &Converter{
		opts:   opts,
		mapper: NewMapper(opts, valuation, idGen, log),
		idGen:  idGen,
		log:    log,
	}
}

// Run converts the row stream into the final entry set. Per-row
// problems are collected into the result's failure list; the returned
// error is non-nil only for run-fatal conditions (a broken source or a
// strict-mode valuation failure).
func (c *Converter) Run(ctx context.Context, src RowSource) (*Result, error) {
	result := &Result{RunID: c.idGen.Generate()}
	log := c.log.With().Str("run_id", result.RunID).Logger()

	state := StateStreaming
	deferred := newBuckets()

	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading source row: %w", err)
		}

		result.RowsRead++

		if row.Operation == "" {
			result.Skipped++
			log.Warn().Str("reference", row.Reference).Msg("row without operation skipped")
			continue
		}

		if err := c.classify(ctx, row, deferred, result); err != nil {
			return nil, err
		}
	}

	state = StateDraining
	log.Debug().Stringer("state", state).Int("rows", result.RowsRead).Msg("source stream drained")

	state = StateAggregating
	synthesized, orphans := deferred.aggregate()
	result.Failures = append(result.Failures, orphans...)
	for _, row := range synthesized {
		if err := c.classify(ctx, row, nil, result); err != nil {
			return nil, err
		}
	}
	log.Debug().Stringer("state", state).
		Int("synthesized", len(synthesized)).
		Int("orphans", len(orphans)).
		Msg("correlation buckets resolved")

	if c.opts.ConsolidateStakingRewards {
		state = StateConsolidating
		before := len(result.Entries)
		result.Entries = c.consolidator.Consolidate(result.Entries)
		log.Debug().Stringer("state", state).
			Int("before", before).
			Int("after", len(result.Entries)).
			Msg("staking income consolidated")
	}

	state = StateDone
	log.Info().Stringer("state", state).
		Int("entries", len(result.Entries)).
		Int("failures", len(result.Failures)).
		Int("skipped", result.Skipped).
		Msg("conversion finished")

	return result, nil
}

// classify runs one row through the mapper and folds the outcome into
// the run state. Synthesized rows pass a nil bucket set: they must not
// defer again.
func (c *Converter) classify(ctx context.Context, row domain.Row, deferred *buckets, result *Result) error {
	out, err := c.mapper.Map(ctx, row)
	if err != nil {
		return err
	}

	for _, e := range out.Entries {
		if !e.HasLeg() {
			// Never emit an entry without a leg.
			continue
		}
		result.Entries = append(result.Entries, e)
	}
	result.Failures = append(result.Failures, out.Failures...)
	if out.Skipped {
		result.Skipped++
	}

	for _, d := range out.Deferred {
		if deferred == nil {
			result.Failures = append(result.Failures, domain.Failure{
				Row:    d.Row,
				Reason: fmt.Sprintf("synthesized row deferred again by family %s", d.Family),
			})
			continue
		}
		deferred.add(d)
	}

	return nil
}
