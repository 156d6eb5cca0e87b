// Package app composes the orders service: it builds the dependency gateways,
// the order store and the orders service from configuration, exposes the HTTP
// handler and health report, and manages background maintenance through the
// system lifecycle manager.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring and lifecycle
//	├── janitor.go          # Cron scheduled maintenance jobs
//	├── core/service/       # Component descriptors reported by /health
//	├── domain/             # Domain models (order, user, product)
//	├── httpapi/            # HTTP API handlers and routing
//	├── metrics/            # Prometheus registry and instrumentation
//	├── runtime/            # Process runtime: database, cache backend, HTTP server
//	├── services/orders/    # Orders service and enrichment aggregator
//	├── storage/            # Order store interface, memory and postgres backends
//	└── system/             # Lifecycle manager
//
// # Dependency Direction
//
//	cmd/orders-service/
//	      │
//	      ▼
//	internal/app/runtime ──► internal/app (composition)
//	                              │
//	                              ├──► internal/app/services/orders
//	                              │           │
//	                              │           └──► internal/clients ──► internal/resilience
//	                              │                       │
//	                              │                       └──► internal/cache
//	                              │
//	                              └──► internal/app/storage
package app
