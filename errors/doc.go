// Package errors defines the error taxonomy shared by all pipeline packages.
//
// Errors fall into three classes:
//
//   - Transient: store connectivity hiccups and other conditions worth
//     retrying at startup (per-record writes are never retried).
//   - Invalid: malformed payloads or out-of-order clips; the offending
//     message is skipped and processing continues.
//   - Fatal: configuration or authorization problems that stop the run.
//
// The duplicate-timestamp conflict from the store is intentionally NOT a
// failure class: callers check IsDuplicateTimestamp and treat the record as
// already present.
//
// Use the Wrap* helpers so every error carries "component.method: action
// failed" context:
//
//	if err := bucket.Write(ctx, rec); err != nil {
//	    return errors.WrapTransient(err, "Runner", "flush", "write episode")
//	}
package errors
