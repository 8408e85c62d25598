package content

import (
	"gorm.io/gorm"

	"folio/access"
	"folio/models"
)

// LogModAction records a moderation action. It must run on the same
// transaction as the change it describes.
func LogModAction(tx *gorm.DB, actor access.Actor, action, kind string, targetID uint, details string) error {
	return tx.Create(&models.ModAction{
		ActorID:  actor.UserID,
		Action:   action,
		Kind:     kind,
		TargetID: targetID,
		Details:  details,
	}).Error
}
