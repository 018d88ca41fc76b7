// Package domain holds the accountability rules for broker flags.
package domain

// DeactivationThreshold is the active flag count at which a broker loses the
// ability to operate.
const DeactivationThreshold = 3

// PenaltyLevel is the flag level from which a monthly penalty applies.
const PenaltyLevel = 2

// FlagPlan describes the consequences of issuing one more flag on top of the
// broker's currently active ones.
type FlagPlan struct {
	Level         int
	RecordPenalty bool
	Deactivate    bool
}

// PlanFlag computes the consequences of a new flag given the number of flags
// active at issue time. The level counts only live flags, so decayed history
// never raises it.
func PlanFlag(activeCount int) FlagPlan {
	level := activeCount + 1
	return FlagPlan{
		Level:         level,
		RecordPenalty: level >= PenaltyLevel,
		Deactivate:    level >= DeactivationThreshold,
	}
}

// Deactivated reports whether a broker with the given live flag count may
// operate. Standing is recomputed from live flags on every check, so a flag
// decaying past its timestamp restores the broker without any write.
func Deactivated(activeCount int) bool {
	return activeCount >= DeactivationThreshold
}

// DisplayLevel caps the reported accountability level for UI purposes.
func DisplayLevel(activeCount int) int {
	if activeCount > DeactivationThreshold {
		return DeactivationThreshold
	}
	return activeCount
}
