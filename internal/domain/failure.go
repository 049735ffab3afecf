package domain

// Failure is one row the engine could not translate, kept with the
// original row untouched so the operator can resolve it by hand. The
// run never aborts because of a failure.
type Failure struct {
	Row    Row
	Reason string
}
