//go:build !swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
)

// MountSwagger is a no-op by default, keeping swaggo out of the plain
// daemon binary. Build with -tags=swagger to serve the inventory API docs.
func MountSwagger(r chi.Router) {}
