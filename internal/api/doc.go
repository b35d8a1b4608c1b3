// Package api exposes the user, vaccine and vaccination history services
// over HTTP. Handlers decode and validate JSON requests, call the services,
// and translate domain and store errors into status codes without leaking
// internal details.
package api
