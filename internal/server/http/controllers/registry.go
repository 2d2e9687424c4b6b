package controllers

import (
	"net/http"

	"github.com/rzbill/commlog/internal/runtime"
	logsvc "github.com/rzbill/commlog/internal/services/logs"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	logs    *LogsController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, logsSvc *logsvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		logs:    NewLogsController(rt, logsSvc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.logs.RegisterRoutes(mux)
}
