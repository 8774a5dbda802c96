package util

import "fmt"

// PrettyBytes returns a human-formatted size string for a byte count.
func PrettyBytes(numBytes int64) string {
	const unit = 1024

	if numBytes < unit {
		return fmt.Sprintf("%dB", numBytes)
	}

	div, exp := int64(unit), 0
	for n := numBytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f%ciB", float64(numBytes)/float64(div), "KMGTPE"[exp])
}
