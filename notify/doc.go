// Package notify carries the client's diagnostic events to a logging sink.
//
// The client emits exactly one Event per terminal outcome. Sinks are side
// effects only: a panicking or slow sink never changes an operation's result.
// ZerologNotifier writes JSON log lines; Recorder keeps events in memory for
// tests.
package notify
