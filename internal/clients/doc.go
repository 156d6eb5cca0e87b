// Package clients contains the gateways to the remote user directory and product
// catalog. Each gateway reads through the shared cache, runs misses through its own
// resilience pipeline and turns the outcome into a Result: a real value, a cache hit,
// a degraded fallback from a 503 body, or a placeholder when the pipeline gave up.
// Only ErrNotFound, ErrInvalidInput and ErrConfigurationFault are returned as errors.
package clients
