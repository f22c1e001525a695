package http

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Result is the settled outcome of a Call. A failed Result may still carry the
// Response that reported the failure.
type Result struct {
	Response Response
	Err      error
}

// Call is a single-shot handle for one dispatched request. It settles exactly once.
type Call struct {
	id      string
	request Requester
	cancel  context.CancelFunc

	once   sync.Once
	done   chan struct{}
	result Result
}

func newCall(req Requester, cancel context.CancelFunc) *Call {
	return &Call{
		id:      uuid.New().String(),
		request: req,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (c *Call) ID() string {
	return c.id
}

func (c *Call) Request() Requester {
	return c.request
}

// Done is closed once the call has settled
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Await blocks until the call settles or ctx is done.
func (c *Call) Await(ctx context.Context) (Response, error) {
	select {
	case <-c.done:
		return c.result.Response, c.result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while the call is in flight.
func (c *Call) Result() (Result, bool) {
	select {
	case <-c.done:
		return c.result, true
	default:
		return Result{}, false
	}
}

// OnComplete invokes fn on its own goroutine once the call settles
func (c *Call) OnComplete(fn func(Response, error)) {
	go func() {
		<-c.done
		fn(c.result.Response, c.result.Err)
	}()
}

// Cancel aborts the transport call. A settled call is unaffected.
func (c *Call) Cancel() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Call) settle(resp Response, err error) bool {
	settled := false
	c.once.Do(func() {
		c.result = Result{Response: resp, Err: err}
		close(c.done)
		settled = true
	})
	return settled
}

func (c *Call) fail(err error) bool {
	return c.settle(nil, err)
}

// Do executes req on client and waits for a response of type T.
func Do[T Response](ctx context.Context, client HTTPClient, req Requester) (T, error) {
	var zero T
	resp, err := client.Execute(ctx, req).Await(ctx)
	typed, ok := resp.(T)
	if err != nil {
		return typed, err
	}
	if !ok {
		return zero, fmt.Errorf("unexpected response type %T", resp)
	}
	return typed, nil
}
