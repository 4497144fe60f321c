package tui

import (
	"fmt"
	"time"
)

// fmtDuration renders d the way the dashboard's latency boxes do:
// sub-millisecond and sub-second values get their own precision bands.
func fmtDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// renderSparkline maps a series of non-negative counters onto block
// characters scaled to the series' own maximum.
func renderSparkline(values []int64) string {
	if len(values) == 0 {
		return ""
	}
	levels := []string{" ", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	var max int64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	out := make([]byte, 0, len(values)*3)
	for _, v := range values {
		idx := 0
		if max > 0 {
			idx = int((v * 7) / max)
			if idx > 7 {
				idx = 7
			}
		}
		out = append(out, []byte(levels[idx])...)
	}
	return string(out)
}

func bar(count, max int64, width int) string {
	filled := 0
	if max > 0 {
		filled = int((count * int64(width)) / max)
	}
	if filled > width {
		filled = width
	}
	if filled < 1 && count > 0 {
		filled = 1
	}
	b := make([]rune, width)
	for i := range b {
		if i < filled {
			b[i] = '█'
		} else {
			b[i] = '░'
		}
	}
	return string(b)
}
