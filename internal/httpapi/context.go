package httpapi

import (
	"context"
)

// serverBaseCtx is the daemon-lifetime context. Shutdown cancels it so an
// in-flight scan stops walking roots instead of outliving the server.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext sets the daemon-lifetime base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a context canceled when either a or b is done: a scan
// stops on client disconnect and on daemon shutdown alike. The returned
// cancel func must be called when the handler ends to release the goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
