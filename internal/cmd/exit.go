package cmd

import "strconv"

// exitStatusError carries a bare exit status through cobra's RunE plumbing
// without producing an error message. Scripting commands return it when
// the status itself is the answer: `fsp job doc get` on a missing key,
// `fsp run` with unresolved failures, an interrupted run.
type exitStatusError struct {
	code int
}

func (e *exitStatusError) Error() string {
	return "exit status " + strconv.Itoa(e.code)
}

// exitStatus returns an error that resolves to the given process status.
func exitStatus(code int) error {
	return &exitStatusError{code: code}
}
