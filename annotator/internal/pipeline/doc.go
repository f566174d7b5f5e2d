// Package pipeline runs one annotation job end to end: read the part table,
// attach the unreachable-hole flags, summarise, write the annotated table
// and, when configured, export the summary as a Prometheus textfile and
// report the run to holecheck-server.
package pipeline
