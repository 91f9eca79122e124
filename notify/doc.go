/*
Package notify publishes the outcome of committed transactions.

Events are only published once the state change they describe was written
and committed, so a consumer never observes an escrow transition that was
later rolled back. Publishing is best effort: a failure is reported to the
caller but the committed state stays as it is.
*/
package notify
