package boxes

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrBoxNotFound   = errors.New("box not found")
	ErrNotMember     = errors.New("user is not a member of the box")
	ErrGiftNotFound  = errors.New("gift not found")
	ErrJoinCodeTaken = errors.New("join code already taken")
	ErrReceiverTaken = errors.New("receiver already assigned")
)

// Precondition failures surfaced to the user as-is.
var (
	ErrInvalidBox          = errors.New("invalid box")
	ErrBoxClosed           = errors.New("box is closed for new members")
	ErrAlreadyMember       = errors.New("user is already a member of the box")
	ErrNotAdmin            = errors.New("only the box admin can do this")
	ErrNotGiftOwner        = errors.New("gift belongs to another user")
	ErrParticipationLocked = errors.New("participation is locked after the shuffle")
)
