package httpapi

import (
	"context"
)

// serverBaseCtx is the process-wide context every handler derives from.
// Shutdown cancels it so in-flight inference stops with the server.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-wide base context. A nil ctx resets
// to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context canceled as soon as either parent is done,
// tying a request to both the client connection and server shutdown. The
// cancel func must be called when the handler returns to free the watcher
// goroutine.
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
