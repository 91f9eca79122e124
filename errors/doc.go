/*
Package errors implements the error handling used across the escrow stack.

The idea is to reuse as many errors from this package as possible and define
custom package errors only when absolutely necessary. Extensions register
their own root errors with Register(code, description); x/ledger and
x/escrow are good packages to look at.

Each returned error wraps exactly one registered root error. Use Wrap or
Wrapf at the point of creation to attach a stacktrace (only the first wrap
records it) and test for the kind with the Is method of the root:

	if errors.ErrNotFound.Is(err) { ... }

Once you have an error, use fmt.Printf/Sprintf to get more context
	%s is just the error message
	%+v is the full stack trace
*/
package errors
