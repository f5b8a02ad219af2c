package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Participant{},
		&Message{},
	)
}

// dropAllTables is only used by the integration tests to start from a clean schema.
func dropAllTables(db *gorm.DB) error {
	return db.Migrator().DropTable(&Participant{}, &Message{})
}
