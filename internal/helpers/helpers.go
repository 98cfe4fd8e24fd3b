// Package helpers holds small formatting utilities shared by the CLI output.
package helpers

import (
	"fmt"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// BytesToSize renders a byte count as a human readable size with one
// decimal, e.g. 1536 -> "1.5 KB".
func BytesToSize(n int64) string {
	if n < 0 {
		n = 0
	}
	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", n, sizeUnits[0])
	}
	return fmt.Sprintf("%.1f %s", size, sizeUnits[unit])
}

// DurationString renders whole seconds as m:ss or h:mm:ss.
func DurationString(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// SpeedString renders a bytes-per-second rate, e.g. "2.1 MB/s". Zero means
// the rate is not yet known.
func SpeedString(bytesPerSec int64) string {
	if bytesPerSec <= 0 {
		return "--"
	}
	return BytesToSize(bytesPerSec) + "/s"
}

// ProgressBar renders a fixed-width ASCII progress bar for a 0-100 value.
func ProgressBar(progress, width int) string {
	if width <= 0 {
		width = 20
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	bar := make([]byte, width)
	for i := range bar {
		if i < filled {
			bar[i] = '='
		} else {
			bar[i] = ' '
		}
	}
	return "[" + string(bar) + "]"
}
