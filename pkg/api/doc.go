// Package api provides the HTTP REST API for the pet store.
//
// # Routes
//
//	GET    /api/v1/pet          list every pet, ordered by id
//	POST   /api/v1/pet          add a pet, 201 {"id": 4}
//	GET    /api/v1/pet/{id}     one pet, 404 {} when absent
//	PATCH  /api/v1/pet/{id}     replace a pet, 200 {}
//	DELETE /api/v1/pet/{id}     remove a pet, 200 {}
//	GET    /api/v1/pet/events   websocket change feed (when a hub is configured)
//	GET    /healthcheck         {"status": "healthy"}
//	GET    /openapi.yaml, /openapi.json, /swagger-ui
//
// Request bodies must be sent as application/json and carry exactly the
// name, breed and price fields. Anything else is a 400.
//
// # Usage
//
//	server := api.NewServer(repo,
//	    api.WithLogger(logger),
//	    api.WithMetrics(metrics),
//	    api.WithEvents(hub),
//	)
//	http.ListenAndServe(":8080", server)
package api
