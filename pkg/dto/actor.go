package dto

import "github.com/google/uuid"

// Actor identifies the already-authorized caller of a mutating operation.
type Actor struct {
	ID        uuid.UUID // Who performed the change
	IPAddress string    // Client address, recorded in change logs
	UserAgent string    // Client user agent, recorded in change logs
}

// SystemActor is used for bootstrap writes.
var SystemActor = Actor{ID: uuid.Nil, UserAgent: "system"}
