package operation

import "errors"

// Journal is the explicit undo log an execute builds as it mutates. Each
// recorded step is the inverse of one applied mutation; unwinding replays
// them newest-first so a failure mid-sequence leaves the stores as they
// were.
type Journal struct {
	undo []func() error
}

// Record appends the inverse of a mutation that just succeeded.
func (j *Journal) Record(inverse func() error) {
	j.undo = append(j.undo, inverse)
}

// Len reports how many mutations have been applied so far.
func (j *Journal) Len() int { return len(j.undo) }

// Unwind rolls back all recorded mutations in reverse order. All steps are
// attempted even if one fails.
func (j *Journal) Unwind() error {
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	return errors.Join(errs...)
}
