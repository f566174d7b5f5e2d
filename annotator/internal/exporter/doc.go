// Package exporter writes the aggregate report of an annotation run as a
// Prometheus textfile, in the format read by node_exporter's textfile
// collector. Every gauge carries a dataset label so several jobs can share
// one collector directory.
package exporter
