// Package logx wraps zerolog behind a small structured-logging API with
// runtime-reconfigurable sinks (console, file, rate-limited Discord mirror).
package logx
