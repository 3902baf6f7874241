package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Context{},
		&Invitation{},
	); err != nil {
		return err
	}

	// At most one INITIALIZED invitation per (type, identity-key, context).
	// The identity-key is the user id when present, else the invited email;
	// a missing context collapses to the zero uuid so the index still applies.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_one_initialized " +
			"ON invitations (type, COALESCE(user_id::text, email), COALESCE(context_id::text, '')) " +
			"WHERE status = 'INITIALIZED' AND deleted_at IS NULL",
	).Error; err != nil {
		return err
	}

	// Case-insensitive unique email for non-soft-deleted users.
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower " +
			"ON users ((lower(email))) WHERE deleted_at IS NULL AND email <> ''",
	).Error
}
