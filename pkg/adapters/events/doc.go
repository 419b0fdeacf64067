// Package events provides event bus implementations for registry
// activity events.
package events
