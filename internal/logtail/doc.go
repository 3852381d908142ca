// Package logtail reads log files into logjam's log text field.
//
// Users usually want to ask the backend about the last line a component
// wrote, so Read keeps only the final maxLines lines of a file using a ring
// buffer of that size. Memory is O(maxLines) regardless of file size and the
// file is scanned once. A non-positive maxLines keeps every line.
//
//	text, err := logtail.ReadText("/var/local/grid/bycast.log", 1)
//
// The path "-" reads standard input, so logjam can sit at the end of a pipe:
//
//	grep -m1 ERROR bycast.log | logjam -log-file - -once
//
// # Error Handling
//
// Unlike a background tailer, a missing file is an error here: the user
// named it explicitly. Open failures are wrapped as "open log" and scanner
// failures (including lines over 1MB) as "read log".
package logtail
