// Package cli implements the petstore-cli command-line client.
//
// Every command except seed talks to a running server over the REST API.
// The server defaults to $PETSTORE_URL, then http://localhost:8080.
//
//	petstore-cli list
//	petstore-cli get -id 2
//	petstore-cli add -name Yolo -breed shorthair -price 100
//	petstore-cli update -id 4 -name Yolo -breed persian -price 250
//	petstore-cli remove -id 4
//
// seed writes the starter catalog straight to a JSON document:
//
//	petstore-cli seed -file pets.json
package cli
