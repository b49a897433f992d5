// Package biz implements the hybrid retrieval and fusion engine. A query
// flows through cache check, parallel lexical and dense retrieval, rank
// fusion, batched chunk materialization, answer synthesis, and a cache
// write. Retrieval is best effort: single branches may fail without
// failing the query, but a query without an embedding is never answered.
package biz
