package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrReviewCourierCommandIsNotConstructed = errors.New(
		"ReviewCourierCommand must be created via NewReviewCourierCommand constructor",
	)
	ErrRejectionReasonIsRequired = errs.NewValueIsRequiredError("rejection reason")
)

// ReviewCourierCommand approves or rejects a courier application.
type ReviewCourierCommand struct {
	actor     kernel.Actor
	courierID kernel.UUID
	approve   bool
	reason    string

	guard guard.ConstructorGuard
}

// NewReviewCourierCommand requires a reason when rejecting.
func NewReviewCourierCommand(actor kernel.Actor, courierID kernel.UUID, approve bool, reason string) (ReviewCourierCommand, error) {
	reason = strings.TrimSpace(reason)

	if err := courierID.Validate(); err != nil {
		return ReviewCourierCommand{}, err
	}
	if !approve && reason == "" {
		return ReviewCourierCommand{}, ErrRejectionReasonIsRequired
	}

	return ReviewCourierCommand{
		actor:     actor,
		courierID: courierID,
		approve:   approve,
		reason:    reason,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ReviewCourierCommand) Validate() error {
	return c.guard.Validate(ErrReviewCourierCommandIsNotConstructed)
}

func (c ReviewCourierCommand) Actor() kernel.Actor {
	return c.actor
}

func (c ReviewCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c ReviewCourierCommand) Approve() bool {
	return c.approve
}

func (c ReviewCourierCommand) Reason() string {
	return c.reason
}
