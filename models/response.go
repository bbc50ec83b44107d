package models

// Envelope is the single response shape every HTTP endpoint uses. Clients
// never have to guess between res.data, res.data.data and friends: payloads
// live under "data", failures under "error", never both.
type Envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *APIError   `json:"error,omitempty"`
}

// APIError carries a stable human-readable message plus optional details.
type APIError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
