package game

import "fmt"

// StackingMode defines how draw cards may be stacked.
type StackingMode string

const (
	StackingOff        StackingMode = "off"        // no stacking
	StackingStandard   StackingMode = "standard"   // +2 on +2 only
	StackingAggressive StackingMode = "aggressive" // +2 on +4, +4 on +2, etc.
)

// AFKBehavior defines what happens when the turn timer runs out.
type AFKBehavior string

const (
	AFKDrawAndSkip AFKBehavior = "draw_skip" // auto-draw one card and pass the turn
	AFKAutoPlay    AFKBehavior = "auto_play" // play a random legal card
	AFKForfeit     AFKBehavior = "forfeit"   // remove the player after too many strikes
)

// Settings are per-room rules consulted by the turn-timeout path. They are
// chosen by the host before the game starts.
type Settings struct {
	TurnTimeoutSeconds int          `json:"turn_timeout_seconds"`
	StackingMode       StackingMode `json:"stacking_mode"`
	AFKBehavior        AFKBehavior  `json:"afk_behavior"`
	MaxAFKStrikes      int          `json:"max_afk_strikes"`
}

// DefaultSettings returns the rules a fresh room starts with.
func DefaultSettings() Settings {
	return Settings{
		TurnTimeoutSeconds: 30,
		StackingMode:       StackingStandard,
		AFKBehavior:        AFKDrawAndSkip,
		MaxAFKStrikes:      3,
	}
}

// Validate checks ranges and enum values.
func (s Settings) Validate() error {
	if s.TurnTimeoutSeconds < 5 || s.TurnTimeoutSeconds > 120 {
		return fmt.Errorf("%w: turn_timeout_seconds must be between 5 and 120", ErrInvalidSetting)
	}
	switch s.StackingMode {
	case StackingOff, StackingStandard, StackingAggressive:
	default:
		return fmt.Errorf("%w: unknown stacking_mode %q", ErrInvalidSetting, s.StackingMode)
	}
	switch s.AFKBehavior {
	case AFKDrawAndSkip, AFKAutoPlay, AFKForfeit:
	default:
		return fmt.Errorf("%w: unknown afk_behavior %q", ErrInvalidSetting, s.AFKBehavior)
	}
	if s.MaxAFKStrikes < 0 {
		return fmt.Errorf("%w: max_afk_strikes must not be negative", ErrInvalidSetting)
	}
	return nil
}
