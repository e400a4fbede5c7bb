// Package sitecontent provides the content data-access and media-asset layer
// of the Refenti marketing site.
//
// It exposes a single Service interface that orchestrates CRUD over the four
// content kinds (projects, events, news items, inquiries) and the lifecycle of
// the binary assets those records reference. Implementations of repositories
// (memory, Postgres, SQLite) and blob stores (memory, filesystem, S3) are
// provided under subpackages.
//
// Asset Ownership
//
// Records own assets by path convention only: project assets live under
// projects/<id>/, event and news images are flat files named <id>-<ms>.<ext>
// under events/ and news/. Neither backing store enforces the relationship;
// the Service keeps it by deleting owned assets when a record is deleted or a
// field is explicitly cleared.
package sitecontent
