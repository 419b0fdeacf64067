// Package websocket provides real-time registry event streaming.
//
// Clients can connect to /api/v1/events/ws, optionally with a url
// query parameter, to receive registration and conversion events.
package websocket
