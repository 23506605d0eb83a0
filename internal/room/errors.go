package room

import "github.com/jason-s-yu/uno/internal/game"

func roomErr(code, msg string) *game.RuleError { return &game.RuleError{Code: code, Message: msg} }

var (
	ErrRoomFull       = roomErr("room_full", "room is full")
	ErrAlreadySeated  = roomErr("already_seated", "already seated in this room")
	ErrGameInProgress = roomErr("game_in_progress", "a game is already running in this room")
	ErrNotHost        = roomErr("not_host", "only the host may do that")
	ErrBotNotFound    = roomErr("bot_not_found", "no such bot in this room")
	ErrRoomClosed     = roomErr("room_closed", "room is closed")
	ErrRoomNotFound   = roomErr("room_not_found", "room not found")
	ErrNotSeated      = roomErr("not_seated", "not seated in this room")
	ErrUnknownIntent  = roomErr("unknown_intent", "unknown intent")
	ErrInternal       = roomErr("internal", "internal error, room terminated")
)
