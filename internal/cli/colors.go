package cli

import "github.com/re-cinq/taskforge/internal/workflow"

// ANSI escape codes for terminal colors
const (
	ansiGreen       = "\033[32m"
	ansiCyan        = "\033[36m"
	ansiYellow      = "\033[33m"
	ansiRed         = "\033[31m"
	ansiDim         = "\033[2m"
	ansiBoldMagenta = "\033[1;35m"
	ansiReset       = "\033[0m"
)

// stateDisplay returns the symbol and color for a given task status.
func stateDisplay(status workflow.TaskStatus) (symbol, color string) {
	switch status {
	case workflow.StatusRequirements:
		return "◯", ansiDim
	case workflow.StatusImplementing:
		return "⟳", ansiYellow
	case workflow.StatusReviewRequested:
		return "◎", ansiCyan
	case workflow.StatusChangesRequested:
		return "◎", ansiYellow
	case workflow.StatusApproved:
		return "✓", ansiGreen
	case workflow.StatusMerging:
		return "⟳", ansiYellow
	case workflow.StatusMergeConflict:
		return "✗", ansiRed
	case workflow.StatusBuilding, workflow.StatusDeploying:
		return "⟳", ansiYellow
	case workflow.StatusDone:
		return "✓", ansiGreen
	case workflow.StatusBlocked:
		return "⊘", ansiDim
	case workflow.StatusCancelled:
		return "✗", ansiDim
	default:
		return "·", ansiReset
	}
}
