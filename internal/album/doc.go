// Package album validates ripped-CD directories and parses their metadata.
//
// A directory qualifies as an album when every entry has exactly one
// recognized role (raw .wav audio, one .txt metadata sidecar, at most one
// .log rip log, at most one cover image) and the sidecar parses cleanly
// into track records. Rejections carry a human-readable reason; the batch
// runner surfaces them as warnings and moves on.
package album
