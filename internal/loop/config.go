package loop

import "time"

// Screen pacing.
const (
	shutdownDisplay = 5 * time.Second // Shutdown notice shown before disconnecting
	recentRunsShown = 5               // Runs listed per mode on the records screen
)

// Inactivity limits for remote players.
const (
	InactivityWarn       = 90 * time.Second
	InactivityDisconnect = 120 * time.Second
)
