// Package votingservice implements the poll voting service inside the polling
// context.
//
// The module owns poll creation, one-ballot-per-identity vote application and
// read-only poll/result lookups. Poll definitions and tallies are addressed by
// the external poll key ("owner=<owner>&voting=<poll id>") in both stores.
// Boundary handlers never surface domain failures as errors: rejected votes
// come back as counted=false and unknown polls as a fixed placeholder.
package votingservice
