// Package record persists completed survey records. Each backend appends
// one flat row of fields: respondent name, category, then the answers in
// question order.
package record

import (
	"context"
	"errors"
	"fmt"
)

// Gateway appends one finished record as an ordered row of fields.
type Gateway interface {
	Append(ctx context.Context, fields []string) error
}

// Fanout writes every record to all configured backends. A failing backend
// does not stop the others; the joined error carries every failure.
type Fanout struct {
	gateways []Gateway
}

// NewFanout builds a fanout over the given backends.
func NewFanout(gateways ...Gateway) (*Fanout, error) {
	if len(gateways) == 0 {
		return nil, fmt.Errorf("record: fanout needs at least one gateway")
	}
	return &Fanout{gateways: gateways}, nil
}

// Append writes the record to every backend and joins their errors.
func (f *Fanout) Append(ctx context.Context, fields []string) error {
	var errs []error
	for _, g := range f.gateways {
		if err := g.Append(ctx, fields); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
