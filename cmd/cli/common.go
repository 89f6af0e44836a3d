package cli

import (
	"gorm.io/gorm"

	"github.com/axellelanca/shortlink/cmd"
	"github.com/axellelanca/shortlink/internal/repository"
)

// openDatabase opens and migrates the configured database for a one-shot command.
func openDatabase() (*gorm.DB, error) {
	db, err := repository.OpenDatabase(cmd.Cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		_ = repository.Close(db)
		return nil, err
	}
	return db, nil
}
