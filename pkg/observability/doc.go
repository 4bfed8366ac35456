/*
Package observability exposes Prometheus metrics and structured log hooks for
circuits, edit histories and document stores.

A Metrics value is created once per process and handed out as domain.Hooks,
a history.Observer and a store observer, so every layer reports into the same
collectors.
*/
package observability
