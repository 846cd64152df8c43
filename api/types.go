package api

import "time"

// RepoInfo describes one repository held by a server.
type RepoInfo struct {
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Commits  int       `json:"commits"`
	Branches int       `json:"branches"`
}

type ListResponse struct {
	Repos []RepoInfo `json:"repos"`
}

// Index is everything a server knows about a repository: its commit ids and branch pointers.
type Index struct {
	Commits  []string          `json:"commits"`
	Branches map[string]string `json:"branches"`
}

// Offer is what a client has. The server takes over the branch pointers and answers with the
// commits it is missing.
type Offer struct {
	Commits  []string          `json:"commits"`
	Branches map[string]string `json:"branches"`
}

type OfferResponse struct {
	Missing []string `json:"missing"`
}

// CommitBlob carries an encoded commit. Data is the compressed canonical encoding.
type CommitBlob struct {
	ID   string `json:"id,omitempty"`
	Data []byte `json:"data"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
