// Package core holds the shared contracts of the interaction receiver:
// the decoded interaction and callback shapes, the error envelope text
// codes, and layered configuration loading.
package core
