package approval

import (
	"fmt"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/common"
)

// transitions is the allowed approval flow. A rejected invoice may be pulled
// back into review after resubmission; an approved one only moves to audited.
var transitions = map[constants.ApprovalStage][]constants.ApprovalStage{
	constants.StageUploaded: {constants.StageReviewed},
	constants.StageReviewed: {constants.StageApproved, constants.StageRejected},
	constants.StageApproved: {constants.StageAudited},
	constants.StageRejected: {constants.StageReviewed},
	constants.StageAudited:  {},
}

// ValidStage reports whether s names a known approval stage.
func ValidStage(s constants.ApprovalStage) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from -> to is an allowed step.
func CanTransition(from, to constants.ApprovalStage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new stage, or a
// STAGE_TRANSITION error naming both ends.
func Transition(from, to constants.ApprovalStage) (constants.ApprovalStage, error) {
	if !ValidStage(to) {
		return from, common.NewAppError("STAGE_TRANSITION",
			fmt.Sprintf("unknown approval stage %q", to), common.ErrStageTransition)
	}
	if !CanTransition(from, to) {
		return from, common.NewAppError("STAGE_TRANSITION",
			fmt.Sprintf("cannot move from %s to %s", from, to), common.ErrStageTransition)
	}
	return to, nil
}

// Terminal reports whether the stage ends the approval flow.
func Terminal(s constants.ApprovalStage) bool {
	return len(transitions[s]) == 0 && ValidStage(s)
}
