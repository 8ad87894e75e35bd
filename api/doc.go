/*
Package api holds the wire types and server configuration of the image
registry HTTP API.

The API is organized into three subpackages:

 1. handlers - request processing on top of an interfaces.ImageRegistry
 2. servers - HTTP server lifecycle, health endpoints and metrics
 3. clients - Go client implementing interfaces.RegistryProvider over HTTP

# Authentication

Mutating routes require a request signed by the caller's account key (see
package identity). The verified address becomes the author of a registration
and is the only identity allowed to update it. Read routes are public.

# Errors

Every error response has the body {"error": "..."} and a status derived from
the registry error taxonomy:

  - 400 interfaces.ErrInvalidArgument
  - 401 missing or invalid request signature
  - 403 interfaces.ErrUnauthorized
  - 404 interfaces.ErrNotFound
  - 409 interfaces.ErrDuplicateContent
  - 500 anything else

A lookup that finds nothing is a 404, whereas a listing with no matches is a
200 with an empty array.
*/
package api
