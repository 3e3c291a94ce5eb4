package listener

import (
	"errors"
	"fmt"
	"time"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

var (
	ErrForbidden    = errors.New("viewer is not allowed to perform this action")
	ErrPrecondition = errors.New("bundle is not in a state that allows this action")

	ErrDraftsExpired = fmt.Errorf("%w: drafts have expired", ErrPrecondition)
)

// isPermanent reports errors that retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrPrecondition) ||
		errors.Is(err, errMalformedPayload) ||
		errors.Is(err, workqueue.ErrBundleNotFound) ||
		errors.Is(err, workqueue.ErrInvalidTransition) ||
		errors.Is(err, workqueue.ErrApprovalNotPending) ||
		errors.Is(err, workqueue.ErrNoDrafts)
}

func checkCanGenerate(b types.ActionBundle, viewer types.ViewerCapabilities) error {
	if !viewer.CanGenerateDrafts {
		return fmt.Errorf("%w: %s", ErrForbidden, cta.ReasonCannotGenerateDrafts)
	}
	if b.BundleType != types.BundleTypeAutomationRun {
		return fmt.Errorf("%w: drafts are generated for automation runs only", ErrPrecondition)
	}
	if cta.HasMissingScope(b) {
		return fmt.Errorf("%w: %s", ErrPrecondition, cta.ReasonMissingScope)
	}
	if !types.CanTransition(b.State, types.BundleStateDraftsReady) {
		return fmt.Errorf("%w: cannot generate drafts from %s", ErrPrecondition, b.State)
	}
	return nil
}

func checkCanRequestApproval(b types.ActionBundle, viewer types.ViewerCapabilities) error {
	if !viewer.CanRequestApproval {
		return fmt.Errorf("%w: cannot request approval", ErrForbidden)
	}
	if b.Approval == nil || !b.Approval.ApprovalRequired {
		return fmt.Errorf("%w: approval is not required", ErrPrecondition)
	}
	if b.State != types.BundleStateDraftsReady {
		return fmt.Errorf("%w: approval is requested on ready drafts, bundle is %s", ErrPrecondition, b.State)
	}
	return nil
}

// checkCanReview returns whether the decision approves.
func checkCanReview(b types.ActionBundle, viewer types.ViewerCapabilities, decision string) (bool, error) {
	if !viewer.CanApprove {
		return false, fmt.Errorf("%w: cannot approve", ErrForbidden)
	}
	var approve bool
	switch decision {
	case DecisionApprove:
		approve = true
	case DecisionReject:
		approve = false
	default:
		return false, fmt.Errorf("%w: unknown decision %q", errMalformedPayload, decision)
	}
	if b.State != types.BundleStatePendingApproval {
		return false, fmt.Errorf("%w: nothing to review, bundle is %s", ErrPrecondition, b.State)
	}
	return approve, nil
}

// checkCanApply enforces that nothing is applied without approval.
// checkCanApply also rejects drafts that expired before now.
func checkCanApply(b types.ActionBundle, viewer types.ViewerCapabilities, now time.Time) error {
	if !viewer.CanApply {
		return fmt.Errorf("%w: %s", ErrForbidden, cta.ReasonCannotApply)
	}
	if cta.HasMissingScope(b) {
		return fmt.Errorf("%w: %s", ErrPrecondition, cta.ReasonMissingScope)
	}
	if !cta.ApprovalSatisfied(b) {
		return fmt.Errorf("%w: %s", ErrPrecondition, cta.ReasonApprovalRequired)
	}
	if !types.CanTransition(b.State, types.BundleStateApplied) {
		return fmt.Errorf("%w: cannot apply from %s", ErrPrecondition, b.State)
	}
	if b.Draft != nil && b.Draft.ExpiresAt != nil && b.Draft.ExpiresAt.Before(now) {
		return fmt.Errorf("%w: expired at %s", ErrDraftsExpired, b.Draft.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
