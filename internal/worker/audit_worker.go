package worker

import (
	"github.com/pancakepress/posts-api/internal/service"
)

// StartAuditWorker registers audit handlers.
func StartAuditWorker(audit *service.AuditService) {
	if audit == nil {
		return
	}
	audit.RegisterHandlers()
}
