package domain

// JobState represents the lifecycle of one membership enumeration
type JobState string

const (
	JobInit      JobState = "init"
	JobResolving JobState = "resolving"
	JobPaging    JobState = "paging"
	JobDone      JobState = "done"
	JobFailed    JobState = "failed"
)
