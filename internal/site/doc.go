// Package site holds the build data model and renders it into a minimal
// static site: one index.html per routable page, a placeholder stylesheet,
// an asset manifest, build metadata and a README.
//
// Routes are mapped to files by PlanPages. The mapping never produces a path
// outside the output directory, drops wildcard routes, and resolves routes
// that sanitize to the same file according to a CollisionPolicy.
package site
