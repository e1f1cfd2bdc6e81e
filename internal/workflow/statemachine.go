package workflow

// taskTransitions is the declarative task transition table, read by
// isValidTransition, allowedFrom and CompleteTask. The conditional-update
// builder (transitionTask) does not consult it: each lifecycle action
// method passes its own allowed-from set.
var taskTransitions = map[TaskStatus][]TaskStatus{
	StatusRequirements:     {StatusImplementing},
	StatusImplementing:     {StatusReviewRequested, StatusApproved},
	StatusReviewRequested:  {StatusApproved, StatusChangesRequested},
	StatusChangesRequested: {StatusImplementing, StatusReviewRequested},
	StatusApproved:         {StatusMerging},
	StatusMerging:          {StatusMergeConflict, StatusBuilding, StatusDeploying, StatusDone},
	StatusMergeConflict:    {StatusMerging},
	StatusBuilding:         {StatusDeploying, StatusDone},
	StatusDeploying:        {StatusDone},
	// blocked and cancelled are reachable from (almost) any status;
	// BlockTask and CancelTask decide their own source sets rather than
	// duplicating every row here.
}

// nonTerminalStatuses lists every status that is not done/cancelled, used
// (together with done) as task_cancel's source set.
var nonTerminalStatuses = []TaskStatus{
	StatusRequirements, StatusImplementing, StatusReviewRequested,
	StatusChangesRequested, StatusApproved, StatusMerging,
	StatusMergeConflict, StatusBuilding, StatusDeploying, StatusBlocked,
}

// taskNextCandidates is the pool task_next considers.
var taskNextCandidates = []TaskStatus{
	StatusRequirements, StatusImplementing, StatusChangesRequested,
	StatusReviewRequested, StatusApproved, StatusMergeConflict,
}

// allowedFrom returns the allowed source statuses for a to-status under
// the linear transition table, nil if the transition is handled by a
// bespoke allowed-from set in the calling action instead.
func allowedFrom(to TaskStatus) []TaskStatus {
	var from []TaskStatus
	for src, dests := range taskTransitions {
		for _, d := range dests {
			if d == to {
				from = append(from, src)
			}
		}
	}
	return from
}

// isValidTransition reports whether to is a listed destination from from.
// blocked and cancelled are always valid destinations.
func isValidTransition(from, to TaskStatus) bool {
	if to == StatusBlocked || to == StatusCancelled {
		return true
	}
	if from == StatusBlocked {
		return true // restoring to any prior non-terminal status
	}
	for _, d := range taskTransitions[from] {
		if d == to {
			return true
		}
	}
	return false
}

// defaultFlagsForType returns (requiresBranching, requiresHumanReview) for
// a task type at creation time.
func defaultFlagsForType(t TaskType) (branching bool, review bool) {
	switch t {
	case TaskFeature:
		return true, true
	case TaskBugfix:
		return true, false
	case TaskIteration:
		return false, true
	case TaskHotfix:
		return false, false
	case TaskChore:
		return true, false
	default:
		return false, false
	}
}

// projectTransitions is the project state machine.
var projectTransitions = map[ProjectState][]ProjectState{
	ProjectPlanning: {ProjectActive},
	ProjectActive:   {ProjectPaused, ProjectComplete},
	ProjectPaused:   {ProjectActive, ProjectArchived},
	ProjectComplete: {ProjectArchived},
	ProjectArchived: {ProjectActive},
}

func isValidProjectTransition(from, to ProjectState) bool {
	for _, d := range projectTransitions[from] {
		if d == to {
			return true
		}
	}
	return false
}
