package models

// Role is the authenticated actor's role as carried in the JWT.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
)
