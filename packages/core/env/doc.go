// Package env loads .env files and expands {{...}} references in configuration
// values.
//
// {{$NAME}} reads the process environment and {{name}} reads variables set on
// the Resolver. Unresolved references are left in place.
package env
