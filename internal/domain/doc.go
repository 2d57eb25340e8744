// Package domain defines the core business types for the promo monitoring
// pipeline.
//
// Types in this package are pure value objects with no behavior beyond small
// pure helpers, no database dependencies, and no HTTP concerns. They are the
// shared language between the gateway client, the classifier, the reconciler,
// and the collector.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Pure helper methods on the types are allowed
//   - Constants and enums belong here
package domain
