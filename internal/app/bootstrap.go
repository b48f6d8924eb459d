package app

import (
	"github.com/laefree/ibdiary/core/bootstrap"
	"github.com/laefree/ibdiary/internal/bot"
)

// Bootstrap initializes logging, the database pool, and migrations,
// then assembles the bot application on top of them.
func Bootstrap(cfg *Config) (*bot.App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	return bot.NewApp(cfg.CoreConfig(), res.DB), nil
}
