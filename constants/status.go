package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOK      JobStatus = "OK"      // text extracted, result_json populated
	JobStatusPartial JobStatus = "PARTIAL" // result_json populated but some pages degraded; never served from cache
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// Job sources.
const (
	JobSourceUpload = "upload"
	JobSourceWatch  = "watch"
	JobSourceCLI    = "cli"
)
