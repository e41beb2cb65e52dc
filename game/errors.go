package game

import "errors"

// Structural errors. These are surfaced to the acting player as an "error"
// event. Out-of-turn or illegal plays are not errors: the engine silently
// ignores them (see Outcome).
var (
	ErrNotFound            = errors.New("game does not exist")
	ErrCollision           = errors.New("game id collision, try again")
	ErrAlreadyStarted      = errors.New("game has already started")
	ErrRoomFull            = errors.New("game is full")
	ErrInsufficientPlayers = errors.New("need at least two players to start")
	ErrInvalidSetting      = errors.New("invalid game setting")
	ErrNotHost             = errors.New("only the host can do that")
)
