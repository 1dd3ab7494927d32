// Package commit implements the three-phase commit pipeline that turns a
// batch of kernel.Command values into a durable, applied state change:
// shadow-validate against a cloned kernel, persist to the write-ahead
// log, then apply to the live kernel.
package commit
