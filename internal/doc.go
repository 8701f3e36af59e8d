// Package foenergy publishes SEV's realtime energy production for the Faroe
// Islands as Home Assistant sensor entities.
//
// # Architecture
//
// The service is structured into several key packages:
//   - api: SEV realtime map client and payload parser
//   - sensor: Sensor update adapter, entities and the in-memory registry
//   - scheduler: Periodic polling of the adapter
//   - mqtt: Home Assistant discovery and state publishing
//   - rest: Entity state API, manual refresh and metrics endpoint
//   - grpc: Health service and interceptors
//   - metrics: Prometheus collectors
//   - config: YAML and environment configuration
//   - models: Shared data structures
//
// Key Features
//
//   - One entity per area:
//     Each configured area (suduroy, main, total) gets exactly one sensor
//     whose state is the area's total production in MW. The per-source
//     breakdown (oil, wind, hydro, solar, biogas, tidal and fossilFree) is
//     carried as attributes.
//
//   - Availability:
//     A failed fetch marks every entity unavailable for the cycle. A payload
//     missing one area only affects that area's entity.
//
//   - Polling only:
//     There are no retries. The next scheduled poll is the retry.
//
// Example Configuration
//
//	platform: fo_energy_production
//	areas:
//	  - suduroy
//	  - main
//	  - total
//	mqtt:
//	  enabled: true
//	  broker: tcp://homeassistant.local:1883
//
// For more information about specific packages, see their respective
// documentation.
package foenergy
