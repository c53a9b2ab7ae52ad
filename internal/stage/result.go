package stage

// Result is the tri-state outcome of one stage applied to one album.
type Result int

const (
	// Skipped means prior committed output already exists and nothing was
	// touched.
	Skipped Result = iota
	// Success means the stage completed and committed its output.
	Success
	// Failure means the stage aborted; committed output was not produced.
	Failure
)

func (r Result) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}
