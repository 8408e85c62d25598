package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // never serialized
	Role         string    `gorm:"not null;default:viewer;index" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Post status is stored only as Status; the published flag is derived
// from it wherever a post is serialized.
type Post struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Title             string         `gorm:"not null" json:"title"`
	Slug              string         `gorm:"not null;uniqueIndex" json:"slug"`
	Content           string         `json:"content"`
	Category          string         `gorm:"index" json:"category"`
	Author            string         `json:"author"`
	AuthorImage       string         `json:"author_image"`
	AuthorLinkedIn    string         `gorm:"column:author_linkedin" json:"author_linkedin"`
	LinkedInFollowers int            `gorm:"column:linkedin_followers" json:"linkedin_followers"`
	CoverImage        string         `json:"cover_image"`
	ReadTime          int            `json:"read_time"`
	Status            string         `gorm:"not null;default:draft;index" json:"status"`
	Views             int            `json:"views"`
	Likes             int            `json:"likes"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Gallery           []GalleryImage `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"gallery,omitempty"`
	Comments          []Comment      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

type GalleryImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Path      string    `gorm:"not null" json:"path"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"not null;index" json:"post_id"`
	ParentID   *uint     `gorm:"index" json:"parent_id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"not null" json:"email"`
	Content    string    `gorm:"not null" json:"content"`
	AuthorRole string    `gorm:"not null;default:visitor" json:"author_role"`
	Status     string    `gorm:"not null;default:pending;index" json:"status"`
	Depth      int       `json:"depth"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	Replies    []Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
}

// ModAction is the audit trail for destructive and bulk moderation.
type ModAction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `gorm:"index" json:"actor_id"`
	Action    string    `gorm:"not null;index" json:"action"`
	Kind      string    `json:"kind"`
	TargetID  uint      `json:"target_id"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type Certificate struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"not null" json:"title"`
	Image           string    `json:"image"`
	PDF             string    `json:"pdf"`
	VerificationURL string    `json:"verification_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ContactMessage struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"not null" json:"email"`
	Phone        string     `json:"phone"`
	Message      string     `gorm:"not null" json:"message"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	IsRead       bool       `json:"is_read"`
	IsReplied    bool       `json:"is_replied"`
	ReplyMessage string     `json:"reply_message"`
	RepliedAt    *time.Time `json:"replied_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

type SchemaMigration struct {
	Version   uint      `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}
