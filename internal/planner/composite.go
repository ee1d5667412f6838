package planner

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/username/school-scheduler/internal/calendar"
)

// CompositeSource merges the periods of several sources in order.
// A failing source is skipped with a warning; loading fails only when every source fails.
type CompositeSource struct {
	sources []PeriodSource
	logger  *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(logger *zap.Logger, sources ...PeriodSource) *CompositeSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompositeSource{
		sources: sources,
		logger:  logger,
	}
}

// LoadEvents returns the periods of every source that could be loaded
func (cs *CompositeSource) LoadEvents() ([]calendar.Period, error) {
	var (
		periods []calendar.Period
		errs    []error
	)

	for i, src := range cs.sources {
		loaded, err := src.LoadEvents()
		if err != nil {
			cs.logger.Warn("Calendar source failed, skipping",
				zap.Int("source", i),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		periods = append(periods, loaded...)
	}

	if len(cs.sources) > 0 && len(errs) == len(cs.sources) {
		return nil, fmt.Errorf("all calendar sources failed: %w", errors.Join(errs...))
	}

	return periods, nil
}
