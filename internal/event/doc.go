// Package event provides the record types flowing through the aggregation pipeline.
//
// Adapters produce Raw records (loosely-typed string bags extracted from source
// content); the normalizer turns them into canonical Event values with absolute
// timestamps and a deterministic SHA1-based ID derived from the source name,
// normalized title, and start date. The same logical event therefore gets the
// same ID on every run, which keeps re-publication idempotent.
package event
