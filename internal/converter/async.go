// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import "context"

// Outcome is the tagged result of one conversion: Err is nil on success.
type Outcome struct {
	Request Request
	Result  Result
	Err     error
	// Skipped is set by ConvertBatch when the PDF already existed.
	Skipped bool
}

// OK reports whether the conversion succeeded or was skipped.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// ConvertAsync runs Convert on its own goroutine. The returned channel
// delivers exactly one Outcome and is then closed.
func (c *Converter) ConvertAsync(ctx context.Context, req Request) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		res, err := c.Convert(ctx, req)
		ch <- Outcome{Request: req, Result: res, Err: err}
	}()
	return ch
}
