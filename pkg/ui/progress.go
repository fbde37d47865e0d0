package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressFilled = "█"
	ProgressEmpty  = "░"
)

// ProgressBar renders done/total as a fixed-width bar with a percentage
func ProgressBar(done, total, width int) string {
	if width <= 0 {
		width = 20
	}
	var ratio float64
	if total > 0 {
		ratio = float64(done) / float64(total)
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(width))

	bar := strings.Repeat(ProgressFilled, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %3.0f%%", bar, ratio*100)
}

// Rate returns items per minute over elapsed
func Rate(items int, elapsed time.Duration) float64 {
	minutes := elapsed.Minutes()
	if minutes == 0 {
		return 0
	}
	return float64(items) / minutes
}

// FormatDuration renders d as 1h02m03s, 2m03s or 3s
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
