/*
Package observability provides tools for monitoring refgraph documents.

EventMetrics counts the notifications reaching a document, by event type, as
prometheus counters. Attach it with Document.Watch:

	m := observability.NewEventMetrics(prometheus.DefaultRegisterer)
	listener, err := doc.Watch(m.Observe)
*/
package observability
