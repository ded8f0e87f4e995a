package app

import (
	"context"
	"strings"

	"labmerge/domain/experiment"
	"labmerge/domain/frame"
	"labmerge/domain/summary"
	"labmerge/internal"
	"labmerge/ports"
)

// SummaryService reads the Summary sheet and flattens it into constant
// columns of a merged table
type SummaryService struct {
	reader ports.WorkbookReader
	policy summary.CollisionPolicy
	logger *internal.Logger
}

// NewSummaryService creates a summary service with the given collision policy
func NewSummaryService(reader ports.WorkbookReader, policy summary.CollisionPolicy, logger *internal.Logger) *SummaryService {
	if policy == "" {
		policy = summary.CollisionRename
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SummaryService{reader: reader, policy: policy, logger: logger}
}

// ReadParameters reads the (name, value) pairs of columns A:B. There is no
// header row. Formula cells yield their cached value; a formula that was
// never calculated yields an empty value.
func (s *SummaryService) ReadParameters(ctx context.Context, path string) ([]summary.Parameter, error) {
	grid, err := s.reader.ReadSheet(ctx, path, experiment.SummarySheet, ports.ReadOptions{
		FirstCol:     "A",
		LastCol:      "B",
		CachedValues: true,
	})
	if err != nil {
		return nil, err
	}

	params := make([]summary.Parameter, 0, grid.Height())
	unresolved := 0
	for r := 0; r < grid.Height(); r++ {
		name, value := grid.Cell(r, 0), grid.Cell(r, 1)
		if name.IsEmpty() && value.IsEmpty() {
			continue
		}
		if value.IsEmpty() {
			unresolved++
		}
		params = append(params, summary.Parameter{
			Name:  strings.TrimSpace(name.String()),
			Value: value,
		})
	}

	s.logger.Debug("[SummaryService] %s: %d parameters (%d without value)", path, len(params), unresolved)
	return params, nil
}

// Attach adds the parameters to f and logs every name collision
func (s *SummaryService) Attach(f *frame.Frame, params []summary.Parameter) (*summary.Result, error) {
	res, err := summary.Attach(f, params, s.policy)
	if res != nil {
		for _, c := range res.Collisions {
			switch c.Policy {
			case summary.CollisionOverwrite:
				s.logger.Warn("summary parameter %q overwrote an existing column", c.Column)
			default:
				s.logger.Info("summary parameter %q written as %q", c.Column, c.Written)
			}
		}
	}
	return res, err
}
