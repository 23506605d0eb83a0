package game

// RuleError is an expected, recoverable rejection of a player action. No state
// is mutated when one is returned.
type RuleError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RuleError) Error() string { return e.Message }

func ruleErr(code, msg string) *RuleError { return &RuleError{Code: code, Message: msg} }

var (
	ErrNotYourTurn         = ruleErr("not_your_turn", "not your turn")
	ErrChallengePending    = ruleErr("challenge_pending", "a wild draw four challenge is pending")
	ErrCardNotHeld         = ruleErr("card_not_held", "card is not in your hand")
	ErrIllegalMove         = ruleErr("illegal_move", "card cannot be played on the current top card")
	ErrColorRequired       = ruleErr("color_required", "a wild card requires a color choice")
	ErrInsufficientPlayers = ruleErr("insufficient_players", "a game needs between 2 and 10 players")
	ErrAlreadyStarted      = ruleErr("already_started", "game has already started")
	ErrGameNotStarted      = ruleErr("game_not_started", "game has not started")
	ErrGameOver            = ruleErr("game_over", "game is over")
	ErrNoChallenge         = ruleErr("no_challenge", "no wild draw four challenge is pending")
	ErrNotChallengeTarget  = ruleErr("not_challenge_target", "only the targeted player may respond to the challenge")
	ErrCannotCallUno       = ruleErr("cannot_call_uno", "uno can only be called with two or fewer cards")
	ErrAlreadySafe         = ruleErr("already_safe", "player already called uno or was penalized")
	ErrUnoNotApplicable    = ruleErr("uno_not_applicable", "target does not hold exactly one card")
	ErrUnknownPlayer       = ruleErr("unknown_player", "player is not in this game")
	ErrInvalidTarget       = ruleErr("invalid_target", "invalid challenge target")
)
