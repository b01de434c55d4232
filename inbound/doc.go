// Package inbound turns a raw interaction delivery into a reply.
//
// Handle runs verify, decode and branch in that order. A ping is answered
// inline; every other interaction type is acknowledged and handed to a
// CallbackSubmitter whose outcome never changes the reply.
package inbound
