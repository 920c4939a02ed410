package transport

import (
	"context"

	"github.com/goliatone/go-appclient/core"
)

// CallbackHandler receives the outcome of FetchWithCallbacks. OnSuccess fires
// for every completed exchange regardless of status code; OnError only when the
// exchange itself failed.
type CallbackHandler interface {
	OnSuccess(res core.RawResponse)
	OnError(err error)
}

type CallbackFuncs struct {
	Success func(res core.RawResponse)
	Error   func(err error)
}

func (c CallbackFuncs) OnSuccess(res core.RawResponse) {
	if c.Success != nil {
		c.Success(res)
	}
}

func (c CallbackFuncs) OnError(err error) {
	if c.Error != nil {
		c.Error(err)
	}
}

// FetchWithCallbacks performs req on its own goroutine and reports the raw,
// unclassified response to handler. It returns immediately.
func (d *Dispatcher) FetchWithCallbacks(ctx context.Context, req core.Request, handler CallbackHandler) {
	if handler == nil {
		handler = CallbackFuncs{}
	}
	if d == nil {
		go handler.OnError(core.NewInternalError("transport: dispatcher is nil"))
		return
	}
	go func() {
		res, err := d.perform(ctx, req)
		if err != nil {
			method, url := normalizeTarget(req)
			d.logger.Warn("callback request failed", "method", method, "url", url, "error", err)
			handler.OnError(err)
			return
		}
		handler.OnSuccess(res.Raw())
	}()
}
