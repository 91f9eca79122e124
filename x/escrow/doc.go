/*
Package escrow implements an atomic two party exchange.

The initializer locks one unit of an asset in a custody account and
publishes the asset kind and amount it accepts in return. The custody
account is owned by an address derived from the escrow configuration seed,
so no private key controls it and only this package can move the locked
asset. Any taker that pays the requested amount receives the locked unit
in the same transaction (exchange). Until that happens the initializer can
take the unit back (cancel).

An escrow is either Active or resolved. Resolving it deletes the record and
closes the custody account, so settlement and cancellation are mutually
exclusive and each can succeed at most once.
*/
package escrow
