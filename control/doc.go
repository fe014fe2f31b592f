// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics, and debug introspection for the FIFO
// device session.
//
// Provides concurrent-safe state handling primitives including:
//   - YAML configuration with defaults and validation
//   - A live config store with reload listeners
//   - Prometheus metrics for transfers, rejections and recoveries
//   - Debug probe registration and state export
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
