/*
Package servers runs the registry HTTP API.

A Server mounts one or more RouteRegistrar handlers on a chi router together
with the health endpoints used by orchestrators:

  - GET /livez - process is alive
  - GET /readyz - 200 while serving, 503 while draining
  - GET /drain, GET /undrain - toggle readiness by hand

Request/response routes go through the flashbots access log middleware.
Streaming routes (StreamRouteRegistrar) are mounted beside them without it.
Every route is counted by the Prometheus middleware of the metrics package,
whose collectors are served on HTTPServerConfig.MetricsAddr when set.

Shutdown is two-phase: Drain flips readiness and waits DrainDuration, then
Shutdown stops accepting connections and waits up to
GracefulShutdownDuration for in-flight requests.
*/
package servers
