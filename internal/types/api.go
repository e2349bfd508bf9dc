package types

import "time"

// APIVersion is the semantic version of the REST surface. Clients accept any
// server with the same major version and an equal or newer minor.
const APIVersion = "1.2.0"

// ChangeEvent announces a committed write on the server.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
}
