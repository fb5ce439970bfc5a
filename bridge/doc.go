// Package bridge gives callbacks their two failure channels.
//
// Every invocation gets a fresh Call. Its log channel records entries at
// Error, Warning, Info or Debug and forwards them to a Sink; it never fails
// and never stops the callback. Its escalation channel marks the call fatal
// with a message; only the first message counts.
//
//	call := bridge.NewCall("process_data", sink)
//	call.Log("negative input", bridge.LevelError)
//	call.SignalFatal("negative input")
//	msg, fatal := call.Fatal()
//
// Sinks: ZapSink writes through zap, Capture keeps entries for tests, Tee
// fans out. OpenLogFile provides the host log file with a version header,
// a level filter and a flush on every Error or Warning entry.
package bridge
