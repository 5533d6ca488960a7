// Package queue describes the work queues of a broker-backed task system.
//
// A Definition carries the identity, priority, execution timeouts and retry
// cap of one queue, plus the two broker keys derived from it:
//
//	<prefix>:<name>      jobs ready to run
//	<prefix>:eta:<name>  jobs scheduled for later
//
// Names and prefixes are restricted to [A-Za-z0-9_.-]; other characters are
// dropped, so neither part can contain the ':' separator and the two key
// spaces never overlap.
//
// Definitions are built with New, or resolved from a loose reference
// ("emails", [5, "emails"], ["emails", 5]) with Create, optionally checked
// against a Registry of known queues. The package does no I/O.
package queue
