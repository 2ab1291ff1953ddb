// Package handler implements the request orchestration pipeline for the
// patron-facing API.
//
// Every operation runs the same fixed sequence: extract and validate
// parameters, decode the API key, acquire a session token, resolve the
// external patron id, dispatch to the backend, and translate the outcome.
// The operations differ only in their parameter sets and dispatch call,
// expressed as per-operation descriptors consumed by one shared routine.
package handler
