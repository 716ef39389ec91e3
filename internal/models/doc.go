// Package models defines the data model for the CMS migration toolkit.
//
// It holds the source-side record shape, the destination-side payloads for
// each content kind, the decomposed content block structure, the reference
// snapshot of cross-system id mappings, and the ledger/summary types the
// orchestrator reports with.
package models
