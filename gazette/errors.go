package gazette

import "errors"

var (
	// ErrSourceUnavailable means the index page or a gazette document could
	// not be fetched or parsed. No partial mutation is performed for the scope.
	ErrSourceUnavailable = errors.New("gazette source unavailable")

	// ErrCategoryNotSupported means the requested category has no column
	// mapping on the index page.
	ErrCategoryNotSupported = errors.New("category not supported")

	// ErrProcessNotFound means the process number is not registered for the
	// company. Distinct from "not found in the gazette", which is a normal
	// null result.
	ErrProcessNotFound = errors.New("process not found")
)
