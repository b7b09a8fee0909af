package services

import "errors"

var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUserEmailConflict     = errors.New("email address is already in use")
	ErrOrganizerNameConflict = errors.New("organizer name is already in use")
	ErrOrganizerDisabled     = errors.New("organizer account is disabled")

	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizerNotFound    = errors.New("organizer not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrResetRequestNotFound = errors.New("password reset request not found")

	ErrEventNotPublished      = errors.New("event is not open for registration")
	ErrRegistrationClosed     = errors.New("registration is closed for this event")
	ErrDeadlinePassed         = errors.New("registration deadline has passed")
	ErrEventFull              = errors.New("event has reached its registration limit")
	ErrNotEligible            = errors.New("participant is not eligible for this event")
	ErrAlreadyRegistered      = errors.New("participant is already registered for this event")
	ErrFormResponseInvalid    = errors.New("registration form response is invalid")
	ErrEventDateRangeInvalid  = errors.New("event end date must be after start date")
	ErrEventDeadlineInvalid   = errors.New("registration deadline must precede the event start")
	ErrEventTeamSizeInvalid   = errors.New("event team size bounds are invalid")
	ErrEventHasRegistrations  = errors.New("event already has registrations")
	ErrEventStatusTransition  = errors.New("invalid event status transition")

	ErrNotTeamEvent            = errors.New("event does not accept team registrations")
	ErrTeamEventRequiresTeam   = errors.New("team event requires registering as a team")
	ErrTeamSizeOutOfRange      = errors.New("team size is outside the event's allowed range")
	ErrTooManyInvites          = errors.New("more invites than open team slots")
	ErrInviteeNotFound         = errors.New("invited email does not match a participant account")
	ErrInviteeUnavailable      = errors.New("invited participant is already committed to this event")
	ErrLeaderHasPendingTeam    = errors.New("leader already has a pending team for this event")
	ErrInviteNotFound          = errors.New("no invite found for this participant")
	ErrInviteAlreadySettled    = errors.New("invite has already been responded to")
	ErrTeamAlreadyCompleted    = errors.New("team registration is already finalized")
	ErrTeamFull                = errors.New("team already has all its members")
	ErrTeamUpdateContention    = errors.New("team is being updated, try again")
	ErrInviteCodeGeneration    = errors.New("could not generate a unique invite code")

	ErrNotMerchandiseEvent  = errors.New("event does not sell merchandise")
	ErrItemNotFound         = errors.New("merchandise item not found")
	ErrItemOutOfStock       = errors.New("merchandise item is out of stock")
	ErrOrderLimitExceeded   = errors.New("per-user purchase limit exceeded for this item")
	ErrOrderNotReviewable   = errors.New("order is not awaiting review")
	ErrOrderAlreadyApproved = errors.New("approved orders cannot be changed")
	ErrProofRequired        = errors.New("payment proof is required")
	ErrVariantInvalid       = errors.New("requested variant does not exist for this item")
)
