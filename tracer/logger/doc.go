// Package logger delivers the events of instrumented Go code to the registered hooks.
//
// Instrumented functions call FuncStart() on entry and FuncEnd() on exit, and call
// Line() before each statement. Each goroutine is treated as a thread of the host,
// so a hook registered via Host().SetHook() receives only the events of the goroutine
// that registered it.
//
// If the GOCOVTRACE_LOG environment variable is set, all events are also written to
// "$GOCOVTRACE_LOG.<pid>.jsonl". The file can be replayed with "gocovtrace replay".
package logger
