// File: internal/session/stamp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"os"
	"time"
)

// stampLayout renders local time as YYYY-MM-DD HH:MM:SS.
const stampLayout = "2006-01-02 15:04:05"

// appendStamp appends one CRLF-terminated timestamp line to path, creating
// the file when needed.
func appendStamp(path string, now time.Time) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(now.Local().Format(stampLayout) + "\r\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
