package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/logger"
)

type recordingReducer struct {
	seen []interfaces.MessageIngested
}

func (r *recordingReducer) OnMessageIngested(ctx context.Context, event interfaces.MessageIngested) {
	r.seen = append(r.seen, event)
}

type panickingReducer struct{}

func (panickingReducer) OnMessageIngested(ctx context.Context, event interfaces.MessageIngested) {
	panic("boom")
}

func testLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{LogLevel: "error", DevMode: true})
	l.InitLogger()
	return l
}

func TestDispatchReachesAllReducers(t *testing.T) {
	d := NewDispatcher(testLogger())
	first := &recordingReducer{}
	second := &recordingReducer{}
	d.Subscribe(first)
	d.Subscribe(second)

	event := interfaces.MessageIngested{CompanyID: "comp_1", MessageID: "imsg_1"}
	d.Dispatch(context.Background(), event)

	assert.Len(t, first.seen, 1)
	assert.Len(t, second.seen, 1)
	assert.Equal(t, "comp_1", first.seen[0].CompanyID)
}

func TestDispatchContainsReducerPanic(t *testing.T) {
	d := NewDispatcher(testLogger())
	after := &recordingReducer{}
	d.Subscribe(panickingReducer{})
	d.Subscribe(after)

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), interfaces.MessageIngested{MessageID: "imsg_1"})
	})
	assert.Len(t, after.seen, 1)
}
