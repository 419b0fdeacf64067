// Package http provides the REST API for the conversion registry.
//
// Responses carry dataset metadata (URL and mime type) only; payload
// bytes never travel over the API.
package http
