package particles

import "errors"

// Configuration errors. They are returned from Controller.Init wrapped
// with the offending influencer and channel names.
var (
	// ErrMissingChannel means an influencer requires a channel that no
	// influencer allocated.
	ErrMissingChannel = errors.New("required channel not allocated")

	// ErrInfluencerOrder means an influencer reads a channel owned by an
	// influencer declared after it.
	ErrInfluencerOrder = errors.New("influencer declared before the producer of a channel it reads")

	// ErrAlreadyBound means an influencer instance was shared between two
	// controllers.
	ErrAlreadyBound = errors.New("influencer already bound to another controller")

	// ErrNoEmitter means the controller has no emitter.
	ErrNoEmitter = errors.New("controller has no emitter")

	// ErrInvalidState means a lifecycle call was made out of order.
	ErrInvalidState = errors.New("invalid controller state")
)
