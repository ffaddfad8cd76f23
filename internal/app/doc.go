// Package app contains the session engine: the in-process registry of live
// sessions, the state machine driving each session from escrow through play
// to settlement, the retrying settlement recorder, and the leader-elected
// sweep that reclaims rounds orphaned by crashed instances.
package app
