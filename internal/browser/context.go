// File: internal/browser/context.go
package browser

import "context"

// combineContext derives from tabCtx, which carries the CDP target, and is also
// canceled when opCtx is. opCtx supplies the caller's deadline and cancellation.
func combineContext(tabCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tabCtx)
	if deadline, ok := opCtx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, deadline)
		base := cancel
		cancel = func() { cancelDeadline(); base() }
	}
	stop := context.AfterFunc(opCtx, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}
