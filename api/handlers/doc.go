/*
Package handlers implements the image registry HTTP API.

Routes:

	POST /api/images                      register a content hash (signed JSON)
	POST /api/images/upload               store an image and register it (signed multipart)
	PUT  /api/images/{id}                 update title and description (signed JSON)
	GET  /api/images[?author=0x...]       list all records or those of one author
	GET  /api/images/{id}                 record by id
	GET  /api/images/hash/{hash}          record by content hash
	GET  /api/images/hash/{hash}/exists   membership test
	GET  /api/images/hash/{hash}/verify   ownership summary, 200 even when unregistered
	GET  /api/stats                       totals for X-Registry-Address
	GET  /api/events                      server-sent event stream of notifications
	GET  /api/events/history              journaled notifications, ?after=N&limit=M

Uploads are sniffed with storage.DetectImageType before they reach the content
store. Events are written as

	id: <seq>
	event: registered|updated
	data: <json interfaces.RegistryEvent>

and a client reconnecting with Last-Event-ID receives what it missed.
*/
package handlers
