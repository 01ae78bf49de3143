package risk

import (
	"context"
	"errors"

	"riskengine/src/model"
)

// MultiSink records every event in each sink in turn. A failing sink does not
// stop the others.
type MultiSink []EventSink

func (m MultiSink) Record(ctx context.Context, event *model.RiskEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
