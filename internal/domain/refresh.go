package domain

import "time"

// RefreshStatus is the singleton bookkeeping row updated by every refresh.
type RefreshStatus struct {
	TotalCountries  int64      `db:"total_countries" json:"total_countries"`
	LastRefreshedAt *time.Time `db:"last_refreshed_at" json:"last_refreshed_at"`
}

// RefreshStage names a step of the refresh pipeline.
type RefreshStage string

const (
	StageIdle       RefreshStage = "idle"
	StageFetching   RefreshStage = "fetching"
	StageEnriching  RefreshStage = "enriching"
	StagePersisting RefreshStage = "persisting"
	StageRendering  RefreshStage = "rendering"
	StageCommitting RefreshStage = "committing"
	StageDone       RefreshStage = "done"
	StageFailed     RefreshStage = "failed"
)

// RefreshResult holds statistics about a successful refresh.
type RefreshResult struct {
	ID              string
	Fetched         int
	Processed       int
	Skipped         int
	LastRefreshedAt time.Time
	Duration        time.Duration
}
