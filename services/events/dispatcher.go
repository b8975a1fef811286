package events

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/tracing"
)

// dispatcher fans MessageIngested out to reducers synchronously. A panicking
// reducer is contained so the remaining reducers still run.
type dispatcher struct {
	log      logger.Logger
	reducers []interfaces.IngestReducer
}

func NewDispatcher(log logger.Logger) interfaces.EventDispatcher {
	return &dispatcher{log: log}
}

func (d *dispatcher) Subscribe(reducer interfaces.IngestReducer) {
	d.reducers = append(d.reducers, reducer)
}

func (d *dispatcher) Dispatch(ctx context.Context, event interfaces.MessageIngested) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "dispatcher.Dispatch")
	defer span.Finish()
	tracing.TagCompany(span, event.CompanyID)
	tracing.TagEntity(span, event.MessageID)

	for _, reducer := range d.reducers {
		d.run(ctx, reducer, event)
	}
}

func (d *dispatcher) run(ctx context.Context, reducer interfaces.IngestReducer, event interfaces.MessageIngested) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("reducer panic on message %s: %v", event.MessageID, r)
		}
	}()
	reducer.OnMessageIngested(ctx, event)
}
