// Package directory holds read-only views of the workshop's bays, service advisors
// and stoppage reasons. Those records are owned elsewhere; this service only resolves them.
package directory

import "context"

// BaySnapshot is a bay as seen at lookup time.
type BaySnapshot struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Number      string `json:"number"`
	Status      string `json:"status"`
}

// AdvisorSnapshot is a service advisor as seen at lookup time.
type AdvisorSnapshot struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// StoppageReason is one entry of the stoppage reason catalogue.
type StoppageReason struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BayDirectory resolves bays. ResolveBay returns a NOT_FOUND error for unknown ids.
type BayDirectory interface {
	ResolveBay(ctx context.Context, id int64) (*BaySnapshot, error)
}

// AdvisorDirectory resolves service advisors. ResolveAdvisor returns a NOT_FOUND error for unknown ids.
type AdvisorDirectory interface {
	ResolveAdvisor(ctx context.Context, id int64) (*AdvisorSnapshot, error)
}

// StoppageReasonCatalog lists the reasons a job may be stopped for.
type StoppageReasonCatalog interface {
	ListStoppageReasons(ctx context.Context) ([]StoppageReason, error)
}

// Directory is the full read surface.
type Directory interface {
	BayDirectory
	AdvisorDirectory
	StoppageReasonCatalog
}
