// Package deferred runs work that must outlive the response of the event that started it.
//
// Each inbound event (HTTP request, scheduled tick, queue batch) owns one
// Group. Service wrappers hand their fire-and-forget work (cache writes,
// queue sends, job processing) to Go; the event entry point calls Wait after
// the response has been produced. Failures are logged and never returned to
// the code that scheduled the work.
package deferred
