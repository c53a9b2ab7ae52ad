// Package stage implements the two conversion phases applied to each
// album: encoding raw tracks into tagged FLAC files and archiving the
// original rip directory.
//
// Both stages are idempotent: committed output is detected up front and
// skipped, and all work happens inside a temporary path that becomes
// visible through a single rename. A failed stage leaves its temporary
// artifacts on disk for inspection; re-running the batch redoes only the
// incomplete work.
package stage
