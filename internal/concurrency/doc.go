// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Background task plumbing for the FIFO device session. The work queue runs
// deferred, best-effort tasks on a single goroutine so that nothing on the
// device's hot path ever waits for them.
package concurrency
