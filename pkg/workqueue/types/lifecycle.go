package types

var transitions = map[BundleState][]BundleState{
	BundleStateNew:             {BundleStatePreviewed, BundleStateDraftsReady, BundleStateFailed},
	BundleStatePreviewed:       {BundleStateDraftsReady, BundleStateFailed},
	BundleStateDraftsReady:     {BundleStatePendingApproval, BundleStateApproved, BundleStateApplied, BundleStateFailed, BundleStateBlocked},
	BundleStatePendingApproval: {BundleStateApproved, BundleStateDraftsReady},
	BundleStateApproved:        {BundleStateApplied, BundleStateFailed, BundleStateBlocked},
	BundleStateFailed:          {BundleStateDraftsReady},
	BundleStateBlocked:         {BundleStateNew, BundleStateDraftsReady},
	BundleStateApplied:         {},
}

// CanTransition reports whether the backend may move a bundle from one state to another.
func CanTransition(from, to BundleState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal is true for states with no outgoing transition.
func (s BundleState) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}
