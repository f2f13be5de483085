//go:build !darwin && !linux

package permissions

func platformChecker() Checker {
	return CheckerFunc(func() Status { return StatusUnavailable })
}
