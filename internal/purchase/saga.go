package purchase

import (
	"context"
	"errors"
	"fmt"

	"overlaykit/internal/logger"
	"overlaykit/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrCompensationFailed = errors.New("compensation failed")

type step struct {
	name       string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga runs its steps in order. When a step fails, the compensations of the
// steps that already succeeded run in reverse before the error is returned.
type saga struct {
	steps []step
}

func newSaga() *saga {
	return &saga{}
}

// Add appends a step. compensate may be nil for a step that has nothing to
// undo.
func (s *saga) Add(name string, action, compensate func(ctx context.Context) error) *saga {
	s.steps = append(s.steps, step{name: name, action: action, compensate: compensate})
	return s
}

func (s *saga) Run(ctx context.Context) error {
	tracer := otel.Tracer("overlaykit/purchase")

	for i, st := range s.steps {
		stepCtx, span := tracer.Start(ctx, "purchase."+st.name)
		err := st.action(stepCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if err != nil {
			return s.rollback(ctx, i, err)
		}
	}
	return nil
}

// rollback compensates steps [0, failed) in reverse. The compensation uses a
// context detached from the caller's cancellation so it runs to completion.
func (s *saga) rollback(ctx context.Context, failed int, cause error) error {
	ctx = context.WithoutCancel(ctx)
	tracer := otel.Tracer("overlaykit/purchase")

	var compErrs []error
	for i := failed - 1; i >= 0; i-- {
		st := s.steps[i]
		if st.compensate == nil {
			continue
		}

		cctx, span := tracer.Start(ctx, "purchase.compensate."+st.name)
		span.SetAttributes(attribute.String("saga.failed_step", s.steps[failed].name))
		err := st.compensate(cctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordCompensation(st.name, "failed")
			logger.Error("compensation failed",
				"step", st.name,
				"failed_step", s.steps[failed].name,
				"cause", cause,
				"error", err,
			)
			compErrs = append(compErrs, fmt.Errorf("%w: %s: %v", ErrCompensationFailed, st.name, err))
		} else {
			metrics.RecordCompensation(st.name, "ok")
		}
		span.End()
	}

	if len(compErrs) == 0 {
		return cause
	}
	return errors.Join(append([]error{cause}, compErrs...)...)
}
