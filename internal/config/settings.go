package config

import (
	"fmt"
	"math"
	"time"
)

// Simulation defaults.
const (
	DefaultGravity           = 9.81
	DefaultTurnDelay         = time.Second
	DefaultDiskRadius        = 0.5
	DefaultRifleSpeed        = 1.5 // Radians per second
	DefaultReloadDelay       = 500 * time.Millisecond
	DefaultLookBackFrames    = 6
	DefaultLookForwardFrames = 4
)

// Process defaults.
const (
	DefaultDBPath   = "diskiller.db"
	DefaultLogLevel = "info"
)

// Frame pacing for the terminal loop.
const (
	TargetFPS       = 60
	TargetFrameTime = time.Second / TargetFPS
)

// Settings are the tunables a session reads. They are fixed for the
// lifetime of a session.
type Settings struct {
	Gravity           float64       // Downward acceleration, units/s²
	TurnDelay         time.Duration // Pause between a resolved turn and the next spawn
	DiskRadius        float64       // Collider radius used by the hit test
	RifleSpeed        float64       // Aim speed in radians per second
	ReloadDelay       time.Duration // Time after a shot before the rifle can fire again
	LookBackFrames    int           // Positions each disk remembers for hit testing
	LookForwardFrames int           // Frames a shot stays live
}

// Config is everything a binary needs at startup.
type Config struct {
	Settings Settings
	DBPath   string
	LogLevel string
	LogFile  string // Empty keeps the terminal binary silent
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		Gravity:           DefaultGravity,
		TurnDelay:         DefaultTurnDelay,
		DiskRadius:        DefaultDiskRadius,
		RifleSpeed:        DefaultRifleSpeed,
		ReloadDelay:       DefaultReloadDelay,
		LookBackFrames:    DefaultLookBackFrames,
		LookForwardFrames: DefaultLookForwardFrames,
	}
}

// Validate reports the first setting that would break the simulation.
func (s Settings) Validate() error {
	switch {
	case !finite(s.Gravity, s.DiskRadius, s.RifleSpeed):
		return fmt.Errorf("%w: gravity, disk radius and rifle speed must be finite, got %v, %v, %v",
			ErrInvalidSetting, s.Gravity, s.DiskRadius, s.RifleSpeed)
	case s.Gravity <= 0:
		return fmt.Errorf("%w: gravity must be positive, got %v", ErrInvalidSetting, s.Gravity)
	case s.TurnDelay < 0:
		return fmt.Errorf("%w: turn delay must not be negative, got %v", ErrInvalidSetting, s.TurnDelay)
	case s.DiskRadius <= 0:
		return fmt.Errorf("%w: disk radius must be positive, got %v", ErrInvalidSetting, s.DiskRadius)
	case s.RifleSpeed < 0:
		return fmt.Errorf("%w: rifle speed must not be negative, got %v", ErrInvalidSetting, s.RifleSpeed)
	case s.ReloadDelay < 0:
		return fmt.Errorf("%w: reload delay must not be negative, got %v", ErrInvalidSetting, s.ReloadDelay)
	case s.LookBackFrames < 1:
		return fmt.Errorf("%w: look-back frames must be at least 1, got %d", ErrInvalidSetting, s.LookBackFrames)
	case s.LookForwardFrames < 1:
		return fmt.Errorf("%w: look-forward frames must be at least 1, got %d", ErrInvalidSetting, s.LookForwardFrames)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Load reads the configuration from environment variables, applying defaults
// and returning descriptive errors for invalid overrides.
func Load() (*Config, error) {
	s := DefaultSettings()
	var err error

	if s.Gravity, err = GetEnvFloat("DISKILLER_GRAVITY", s.Gravity); err != nil {
		return nil, err
	}
	if s.TurnDelay, err = GetEnvDuration("DISKILLER_TURN_DELAY", s.TurnDelay); err != nil {
		return nil, err
	}
	if s.DiskRadius, err = GetEnvFloat("DISKILLER_DISK_RADIUS", s.DiskRadius); err != nil {
		return nil, err
	}
	if s.RifleSpeed, err = GetEnvFloat("DISKILLER_RIFLE_SPEED", s.RifleSpeed); err != nil {
		return nil, err
	}
	if s.ReloadDelay, err = GetEnvDuration("DISKILLER_RELOAD_DELAY", s.ReloadDelay); err != nil {
		return nil, err
	}
	if s.LookBackFrames, err = GetEnvInt("DISKILLER_LOOKBACK_FRAMES", s.LookBackFrames); err != nil {
		return nil, err
	}
	if s.LookForwardFrames, err = GetEnvInt("DISKILLER_LOOKFORWARD_FRAMES", s.LookForwardFrames); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		Settings: s,
		DBPath:   GetEnv("DISKILLER_DB", DefaultDBPath),
		LogLevel: GetEnv("DISKILLER_LOG_LEVEL", DefaultLogLevel),
		LogFile:  GetEnv("DISKILLER_LOG_FILE", ""),
	}, nil
}
