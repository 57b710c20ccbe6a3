// Package coverage records which lines or arcs of the traced program were executed.
//
// Recorder is installed as the Hook of a types.Host, and receives call, line, return
// and exception events. It builds a set of executed lines (or arcs) for every source
// file that the Oracle allows to trace.
//
// Life cycle
//   1. Fill the exported fields of Recorder.
//   2. Call Recorder.Start(). The Host starts to deliver events to the Recorder.
//   3. Call Recorder.Stop().
//   4. Read the result with Recorder.Data() and Recorder.Stats().
package coverage
