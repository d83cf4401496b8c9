// Package env resolves references inside parameter fixtures.
//
// Strings may contain {{name}} for variables set on the command line or
// loaded from a .env file, {{$NAME}} for process environment variables and
// {{func(args)}} for the functions in package builtin.
package env
