/*
Package monitoring provides metrics collection for descriptors and processes.

# Overview

This package implements Prometheus-based metrics for the descriptor set, the
spawner and the reaper, plus request metrics for the collaborator API.

# Features

- Descriptor metrics (open handles, pipes created, protocol errors)
- Spawn metrics (attempts by procedure and outcome)
- Reap metrics (outcome, time spent waiting by mode)
- Tracked process gauges by state (running, zombie, reaped)
- HTTP request metrics for the collaborator API

# Usage

	// Create metrics collector on a private registry
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time waits
	timer := monitoring.NewTimer(metrics, "blocking")
	// ... wait4 ...
	timer.Stop()

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
