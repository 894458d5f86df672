package dto

import "github.com/google/uuid"

// Actor is the request-scoped identity every orchestrator call receives
// explicitly — who is acting and for which company. Built by the auth
// middleware from the JWT; never ambient global state.
type Actor struct {
	UserID    uuid.UUID
	Username  string
	CompanyID uuid.UUID
	Role      string
}
