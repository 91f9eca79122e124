/*
Package ledger implements the asset holding substrate used by the escrow.

An Asset is a named kind of value created by an issuer. Value of an asset is
held in Accounts, each bound to a single asset and owned by an address. Only
the owner of an account can move value out of it, hand it over to another
owner or close it. Creating an account locks a rent deposit taken from the
payer's Reserve, and closing an account returns that deposit to a chosen
recipient.

All functionality is exposed by the Controller, so that other extensions can
move value as part of their own state transitions. Handlers exposing the same
functionality to transactions are registered with RegisterRoutes.
*/
package ledger
