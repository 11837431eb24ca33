// Package backup writes timestamped snapshots of the pet catalog on a cron
// schedule.
//
// A snapshot is the same JSON document the file store writes, named
// pets-20060102T150405Z.json, and is written to a Sink: a local directory or
// a key prefix in the S3 bucket.
package backup
