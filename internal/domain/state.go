package domain

// SystemState tracks where the stats pipeline is in its update/reset cycle.
type SystemState string

const (
	StateStarting       SystemState = "STARTING"
	StateAvailable      SystemState = "AVAILABLE"
	StateUpdatingStats  SystemState = "UPDATING_STATS"
	StateResettingStats SystemState = "RESETTING_STATS"
	StateWriteExecuted  SystemState = "WRITE_EXECUTED"
)
