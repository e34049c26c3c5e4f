// Package websocket pushes dashboard events to connected browsers so every
// open dashboard re-renders after a load, a selection change or a
// configuration operation.
package websocket
