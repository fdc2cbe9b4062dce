package migration

import (
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType == "sqlite" {
			// sqlite is only used for local scratch databases and tests,
			// which build their schema through gorm.
			log.Named("migration").Info("skipping migrations for sqlite")
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB, cfg.DBType)
	}),
)
