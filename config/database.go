package config

import (
	"context"
	"strings"
	"time"

	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/store/mongostore"
	"github.com/amaforum/ama/store/sqlstore"
)

// OpenStore connects to the backend addressed by cfg.DatabaseURL().
// mongodb:// and mongodb+srv:// select the document store; every other scheme goes through gorm.
func OpenStore(ctx context.Context, cfg AppConfig) (store.Store, error) {
	uri := cfg.DatabaseURL()
	if strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://") {
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return mongostore.Open(ctx, uri, cfg.DBName)
	}
	return sqlstore.Open(uri, cfg.LogLevel)
}
