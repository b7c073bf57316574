// Package platform implements the usage-accounting, package-metadata and
// app-ops services on top of the local session ledger.
//
// Sessions are recorded by habitlens-shim and ingested by the watcher; this
// package only reads them back. The query surface mirrors a mobile platform's
// usage-stats service: daily buckets per package, a metadata lookup that
// fails for uninstalled packages, and an app-op that the user flips
// out-of-band with "habitlens access grant".
package platform
