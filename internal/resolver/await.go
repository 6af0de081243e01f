package resolver

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoReason stands in for a failure that carried no reason, such as a
// rejection with a nil value.
var ErrNoReason = errors.New("deferred value rejected without a reason")

// AsError normalizes a failure value. Errors are returned unchanged, nil
// becomes ErrNoReason, and any other value becomes a new error whose message
// is the value's text.
func AsError(reason any) error {
	if reason == nil {
		return ErrNoReason
	}
	if err, ok := reason.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(reason))
}

type settlement struct {
	value any
	err   error
}

// Await blocks until t settles or ctx is done. A rejection is returned as an
// error normalized with AsError.
func Await(ctx context.Context, t Thenable) (any, error) {
	ch := make(chan settlement, 1)
	t.Then(
		func(v any) (any, error) {
			ch <- settlement{value: v}
			return v, nil
		},
		func(reason any) (any, error) {
			err := AsError(reason)
			ch <- settlement{err: err}
			return nil, err
		},
	)
	select {
	case s := <-ch:
		return s.value, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
