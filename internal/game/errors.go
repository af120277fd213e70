package game

import "errors"

// Error categories. Every error returned by the Engine unwraps to one of them.
var (
	// ErrIllegalActor: the wrong seat tried to act.
	ErrIllegalActor = errors.New("illegal actor")
	// ErrIllegalValue: a suit, seat, card index or deck is not acceptable.
	ErrIllegalValue = errors.New("illegal value")
	// ErrIllegalState: the action is not allowed in the current status.
	ErrIllegalState = errors.New("illegal state")
	// ErrInvariant: the engine or its input is broken; abort the match.
	ErrInvariant = errors.New("invariant violation")
)

// RuleError is a specific failure belonging to one category.
type RuleError struct {
	kind error
	msg  string
}

func (e *RuleError) Error() string { return e.msg }

// Unwrap returns the category so errors.Is works against it.
func (e *RuleError) Unwrap() error { return e.kind }

// Kind returns the category sentinel.
func (e *RuleError) Kind() error { return e.kind }

func ruleError(kind error, msg string) *RuleError {
	return &RuleError{kind: kind, msg: msg}
}

var (
	ErrNotYourTurn     = ruleError(ErrIllegalActor, "not your turn")
	ErrNotAnchorHolder = ruleError(ErrIllegalActor, "only the holder of the six of clubs may do this")

	ErrInvalidPosition = ruleError(ErrIllegalValue, "no such position")
	ErrInvalidSuit     = ruleError(ErrIllegalValue, "invalid trump suit")
	ErrNoSuchCard      = ruleError(ErrIllegalValue, "no such card")
	ErrMustFollowSuit  = ruleError(ErrIllegalValue, "must follow the leading suit, or play trump")
	ErrBadDeck         = ruleError(ErrIllegalValue, "deck is not a full 36-card deck")

	ErrWrongStatus   = ruleError(ErrIllegalState, "action not allowed now")
	ErrSeatTaken     = ruleError(ErrIllegalState, "seat already taken")
	ErrNoCardsLeft   = ruleError(ErrIllegalState, "no cards left")
	ErrDealComplete  = ruleError(ErrIllegalState, "deal already complete")
	ErrTrickFull     = ruleError(ErrIllegalState, "trick already full")
	ErrTrickNotFull  = ruleError(ErrIllegalState, "trick not full")
	ErrNoViolation   = ruleError(ErrIllegalState, "no unclaimed violation by the opponents")
	ErrMissingPlayer = ruleError(ErrIllegalState, "not all seats are filled")

	ErrNoAnchor = ruleError(ErrInvariant, "no player holds the six of clubs")
)

// Category returns the category sentinel of err, or nil if err did not come
// from the engine.
func Category(err error) error {
	for _, kind := range []error{ErrIllegalActor, ErrIllegalValue, ErrIllegalState, ErrInvariant} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
