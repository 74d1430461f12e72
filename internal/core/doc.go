// Package core provides the business logic for filing management and
// package exports.
//
// This package contains all domain logic independent of any transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Store: Persistence for filings, per-template row sets, and the export
//     audit trail. [PGStore] is the PostgreSQL implementation; tests use
//     in-memory fakes.
//   - Service: The main entry point for all operations (filings, template
//     rows, validation, exports).
//   - Exports: Asynchronous package builds with per-template progress
//     streaming, cancellation, and bounded concurrency.
//
// # Export Jobs
//
// An export renders every registered template of a filing into the
// regulatory report package and compresses it in memory. The flow is:
//
//  1. Client calls [Service.StartExport] and receives a job ID
//  2. The job loads the filing's template rows from the [Store]
//  3. The package builder renders all 15 CSV documents and the metadata
//     files, reporting progress per template
//  4. Progress is broadcast to subscribers via [Service.SubscribeProgress];
//     the final archive is available from [Service.GetExportResult]
//
// Parallel builds are capped by [ExportLimiter]; when all slots are busy,
// StartExport waits up to the configured limit and then fails with
// [ErrTooManyExports].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB004: Database errors (connections, timeouts, duplicates)
//   - VAL001-VAL003: Parameter validation errors
//   - FIL001-FIL002: Filing and template lookup errors
//   - EXP001-EXP005: Export job errors (cancelled, busy, not found)
//
// # Audit Trail
//
// Every export attempt, successful or not, is recorded with its package
// name, outcome, and duration, queryable per filing via
// [Service.ListExports].
package core
