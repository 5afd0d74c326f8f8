package validation

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	auditMu     sync.RWMutex
	auditLogger = zerolog.Nop()
)

// SetAuditLogger routes validation failures to l.
func SetAuditLogger(l zerolog.Logger) {
	auditMu.Lock()
	defer auditMu.Unlock()
	auditLogger = l.With().Str("component", "validation").Logger()
}

// AuditValidationError logs a validation failure. Messages must not carry
// patient names; schema errors only name fields and values of non-PHI fields.
func AuditValidationError(context, errMsg string) {
	auditMu.RLock()
	l := auditLogger
	auditMu.RUnlock()
	l.Warn().Str("check", context).Msg("[AUDIT] " + errMsg)
}
