package types

// EngineStatus is the phase the live trading engine is in.
type EngineStatus string

const (
	// EngineStatusPrefetching: the engine is replaying backfilled bars.
	EngineStatusPrefetching EngineStatus = "prefetching"
	// EngineStatusGapFilling: bars missed between backfill and stream are being fetched.
	EngineStatusGapFilling EngineStatus = "gap_filling"
	EngineStatusRunning    EngineStatus = "running"
	EngineStatusStopped    EngineStatus = "stopped"
)
