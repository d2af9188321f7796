// Package testutil contains helper agents and builders used across tests to
// reduce boilerplate when scripting request lifecycles (streamed updates,
// terminal success/error) and asserting store reconciliation. These helpers
// are intentionally minimal and avoid adding third-party dependencies. They
// are not intended for production usage.
package testutil
