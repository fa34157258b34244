// Package errors provides structured error types shared by the bundle cache,
// its HTTP API and its CLI.
//
// Every error that crosses a package boundary carries an ErrorCode so callers
// can branch on the failure class without string matching:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeNotFound,
//	    "bundle not loaded",
//	    nil,
//	    map[string]any{
//	        "bundle": "characters",
//	    },
//	)
//
//	if errors.IsCode(err, errors.ErrCodeNotFound) {
//	    // load the bundle first
//	}
package errors
