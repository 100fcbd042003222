package transfer

// Stage is the phase of an in-flight download flow. Transitions are strict:
// idle -> fetching-info -> downloading -> merging -> complete, with any
// cancellation or failure resetting to idle.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageFetchingInfo Stage = "fetching-info"
	StageDownloading  Stage = "downloading"
	StageMerging      Stage = "merging"
	StageComplete     Stage = "complete"
)

// Progress is the transient state of an in-flight operation. UI-facing,
// never persisted.
type Progress struct {
	Stage   Stage   `json:"stage"`
	Percent float64 `json:"progress"`
	Message string  `json:"message,omitempty"`
}
