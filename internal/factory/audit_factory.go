package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/audit"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// AuditFactory creates decision audit logs based on configuration
type AuditFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAuditFactory creates a new audit factory
func NewAuditFactory(cfg *config.Config, logger *zap.Logger) *AuditFactory {
	return &AuditFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDecisionLog creates an audit log based on the configuration. The
// "disabled" type turns decision audit off.
func (f *AuditFactory) CreateDecisionLog() (core.DecisionLog, error) {
	auditCfg := f.cfg.GetAudit()
	if auditCfg.Type == "disabled" {
		f.logger.Info("Decision audit disabled")
		return nil, nil
	}

	retention, err := f.cfg.GetDuration("audit.retention")
	if err != nil {
		return nil, fmt.Errorf("invalid audit retention: %w", err)
	}
	cleanupFreq, err := f.cfg.GetDuration("audit.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid audit cleanup frequency: %w", err)
	}

	switch auditCfg.Type {
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(auditCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return audit.NewSQLiteLog(auditCfg.SQLitePath, retention, cleanupFreq, f.logger)
	case "mysql":
		return audit.NewMySQLLog(auditCfg.MySQLDSN, retention, cleanupFreq, f.logger)
	default:
		return nil, fmt.Errorf("unsupported audit type: %s", auditCfg.Type)
	}
}
