package utils

import "errors"

// ErrorRecordNotFound is returned by lookups that resolve to no row,
// including access checks that hide rows outside the caller's companies.
var ErrorRecordNotFound = errors.New("record not found")
