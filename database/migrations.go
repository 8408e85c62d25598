package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"folio/access"
	"folio/models"
)

// migration is a one-time data conversion applied before AutoMigrate.
// Each runs at most once per database, tracked in schema_migrations.
type migration struct {
	Version uint
	Name    string
	Up      func(tx *gorm.DB) error
}

var migrations = []migration{
	{1, "user_roles", migrateUserRoles},
	{2, "post_status", migratePostStatus},
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(&models.SchemaMigration{}); err != nil {
		log.Printf("Error creating schema_migrations: %v", err)
		return err
	}

	var latest uint
	if err := db.Model(&models.SchemaMigration{}).Select("COALESCE(MAX(version), 0)").Scan(&latest).Error; err != nil {
		return fmt.Errorf("could not get db version: %w", err)
	}
	log.Printf("Current database schema version: %d", latest)

	for _, m := range migrations {
		if m.Version <= latest {
			continue
		}
		log.Printf("Applying migration %d (%s)", m.Version, m.Name)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			log.Printf("Error applying migration %d: %v", m.Version, err)
			return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
		}
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.GalleryImage{},
		&models.Comment{},
		&models.ModAction{},
		&models.Certificate{},
		&models.ContactMessage{},
	)
	if err != nil {
		log.Printf("Error running migrations: %v", err)
		return err
	}

	log.Println("Migrations completed successfully")
	return nil
}

type legacyUser struct {
	ID      uint
	IsAdmin bool
	Role    *string
}

// migrateUserRoles folds the legacy admin flag and the optional role
// column into the required role column. Fresh databases have no users
// table yet and skip straight to AutoMigrate.
func migrateUserRoles(tx *gorm.DB) error {
	m := tx.Migrator()
	if !m.HasTable("users") {
		return nil
	}

	hadRole := m.HasColumn("users", "role")
	adminFlag := legacyColumn(m, "users", "is_admin", "isAdmin")
	if !hadRole {
		if err := tx.Exec("ALTER TABLE users ADD COLUMN role text NOT NULL DEFAULT \"viewer\"").Error; err != nil {
			return err
		}
	}

	flag := "0"
	if adminFlag != "" {
		flag = `"` + adminFlag + `"`
	}
	role := "NULL"
	if hadRole {
		role = "role"
	}

	var rows []legacyUser
	if err := tx.Raw(fmt.Sprintf("SELECT id, %s AS is_admin, %s AS role FROM users", flag, role)).Scan(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		r := access.RoleFromLegacy(row.IsAdmin, row.Role)
		if err := tx.Exec("UPDATE users SET role = ? WHERE id = ?", string(r), row.ID).Error; err != nil {
			return err
		}
	}
	log.Printf("user_roles: assigned roles to %d users", len(rows))
	return nil
}

// migratePostStatus makes status authoritative for posts written while
// a published flag column existed. Where the two disagree or status
// is missing, the flag decides between published and draft.
func migratePostStatus(tx *gorm.DB) error {
	m := tx.Migrator()
	if !m.HasTable("posts") {
		return nil
	}
	flag := legacyColumn(m, "posts", "is_published", "isPublished")
	if flag == "" {
		return nil
	}
	published := `"` + flag + `"`

	derive := "UPDATE posts SET status = CASE WHEN " + published + " THEN 'published' ELSE 'draft' END"
	if !m.HasColumn("posts", "status") {
		if err := tx.Exec("ALTER TABLE posts ADD COLUMN status text NOT NULL DEFAULT \"draft\"").Error; err != nil {
			return err
		}
		return tx.Exec(derive).Error
	}

	return tx.Exec(derive + " WHERE status IS NULL OR status NOT IN ('draft', 'published', 'trash')" +
		" OR (status = 'published' AND NOT "+published+") OR (status = 'draft' AND "+published+")").Error
}

// legacyColumn returns the first of names present on table. Older
// databases spell the legacy flags either snake_case or camelCase.
func legacyColumn(m gorm.Migrator, table string, names ...string) string {
	for _, name := range names {
		if m.HasColumn(table, name) {
			return name
		}
	}
	return ""
}
