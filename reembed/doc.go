// Package reembed rebuilds the embeddings of stored chunks after the
// embedding model changes.
//
// Chunks of a namespace are read in insertion order, embedded in batches
// with retry and exponential backoff, and written back in a single store
// transaction so a namespace never mixes vectors from two models. Progress
// is reported to an io.Writer.
package reembed
