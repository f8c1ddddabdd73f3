// Package server exposes the driver's command surface over HTTP.
//
// It owns session lifecycle (one host engine, document and element registry
// per session) and a representative command handler set: execute script,
// execute script asynchronously, find element, get element text. Engine
// status codes are mapped to HTTP statuses only here, at the API boundary;
// nothing below this package speaks HTTP.
package server
