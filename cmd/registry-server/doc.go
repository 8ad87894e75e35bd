// Package main (cmd/registry-server) runs the image copyright registry HTTP API.
//
// The server restores the registry from its event journal, then serves the
// registry routes, the event stream, health endpoints and, on a separate
// address, Prometheus metrics. Uploads are enabled when at least one
// --content-store URI is given:
//
//	registry-server \
//	    --journal sqlite:///var/lib/registry/journal.db \
//	    --content-store ipfs://127.0.0.1:5001/?gateway=https://ipfs.io \
//	    --content-store file:///var/lib/registry/images
//
// Every flag can also be read from a YAML file passed with --config:
//
//	listen-addr: 0.0.0.0:8080
//	journal: bolt:///var/lib/registry/journal.bolt
//	content-store:
//	  - s3://images/uploads?region=eu-west-1
//	log-json: true
//
// On SIGINT or SIGTERM the server reports not ready, waits --drain-seconds
// and shuts down gracefully.
package main
