/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension owns a single configuration entity, stored under a key derived
from the extension name. The entity is created from the "conf" section of the
genesis file and read by handlers whenever they need it. A configuration may
be changed later by a message signed by its owner, see
UpdateConfigurationHandler.

Not being able to get a configuration value is a critical condition for the
application. Handlers must fail the transaction instead of guessing a default.
*/
package gconf
