package run

import "github.com/flarebyte/shipwright/internal/stage"

const exitCodeFailure = 1

type runExitError struct {
	code int
	msg  string
}

func (e runExitError) Error() string { return e.msg }
func (e runExitError) ExitCode() int { return e.code }

// evaluateRunExit maps the driver result to the command's error.
func evaluateRunExit(res stage.Result) error {
	if res.OK() {
		return nil
	}
	return runExitError{code: exitCodeFailure, msg: res.Failure.Error()}
}
