package domain

// RuleReason is a machine-readable rejection code for an illegal command.
type RuleReason string

const (
	ReasonNotPlaying         RuleReason = "not_playing"
	ReasonWrongTurn          RuleReason = "wrong_turn"
	ReasonCardNotOwned       RuleReason = "card_not_owned"
	ReasonInvalidCombination RuleReason = "invalid_combination"
	ReasonDoesNotBeat        RuleReason = "does_not_beat"
	ReasonLeaderCannotPass   RuleReason = "leader_cannot_pass"
	ReasonOpenerRequired     RuleReason = "opener_required"
)

// RuleError is returned when a submit or pass violates the game rules.
// The command is rejected whole; no state was mutated.
type RuleError struct {
	Reason  RuleReason
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleErr(reason RuleReason, message string) *RuleError {
	return &RuleError{Reason: reason, Message: message}
}
