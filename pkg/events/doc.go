// Package events fans pet change notifications out to websocket subscribers.
//
// Every successful mutation made through the API publishes one frame:
//
//	{"event": "PET_ADDED", "data": {"id": "4", "name": "Yolo", ...}}
//
// The feed is one-directional. Messages sent by subscribers are discarded.
package events
