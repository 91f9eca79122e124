/*
Package weave defines all common interfaces to weave together the various
subpackages of the escrow application, as well as implementations of some
of the simpler components (when interfaces would be too much overhead).

Transactions carry a single Msg. A Router dispatches each Msg to the Handler
registered for its Path, wrapped in a chain of Decorators (signature checks,
logging, savepoints). Every Handler runs first as Check, which only
validates, and then as Deliver, which validates again and mutates the
KVStore it was given. Callers hand Deliver a cache wrap of the real store
and write it back only if Deliver succeeded, so a failed operation never
leaves partial state behind.

We pass context through context.Context between app, middleware, and
handlers. There should exist two functions for every XYZ of type T that we
want to support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ may panic if the value was previously set to avoid lower-level
modules overwriting the value (eg. chain id).
*/
package weave
