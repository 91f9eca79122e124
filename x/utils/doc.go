/*
Package utils contains decorators shared by every handler of the
application: panic recovery, savepoints, logging, action tags and metrics.
*/
package utils
