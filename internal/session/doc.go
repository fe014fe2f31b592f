// Package session
// Author: momentics <momentics@gmail.com>
//
// Device session: one FIFO device together with its live configuration,
// metrics, debug probes and the deferred work queue that runs startup side
// tasks. A Session is the in-process equivalent of a loaded driver instance.

package session
