// Package v1 implements version 1 of the test server control protocol: the
// operation body family, its wire shapes and the typed response payloads.
package v1
