// Package metric provides Prometheus-based metrics collection and an HTTP
// server for pipeline monitoring.
//
// The package offers a centralized metrics registry managing both core
// pipeline metrics (source reads, throttle decisions, episode windowing,
// store writes) and custom stage-specific metrics. It includes an HTTP
// server exposing metrics in Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: pipeline-level metrics automatically registered (Metrics type)
//  2. Stage Registry: extensible registration for stage-specific metrics (Registrar interface)
//  3. HTTP Server: metrics endpoint with health checks (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core pipeline metrics
//	core := registry.CoreMetrics()
//	core.RecordRead("structured")
//	core.RecordStoreWrite("episodes", "ok", 4096, duration)
//
// Stages with metrics beyond the core set register their own collectors
// through the Registrar interface; names are namespaced per component so
// two stages can reuse a metric name without colliding.
package metric
