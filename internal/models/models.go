package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TableClubs    = "clubs"
	TableFixtures = "fixtures"
	TableMedia    = "media"
	TableResults  = "results"
	TableMessages = "messages"
	TablePress    = "press"
)

// ---------------- CLUBS ----------------
type Club struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Logo         string    `json:"logo"`
	Slug         string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description  string    `json:"description"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	Status       string    `gorm:"not null;default:active" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Club) TableName() string { return TableClubs }

const (
	ClubActive   = "active"
	ClubPending  = "pending"
	ClubInactive = "inactive"
)

// ---------------- FIXTURES ----------------
type Fixture struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Sport     string         `json:"sport"`
	Team1ID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"team1_id"`
	Team2ID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"team2_id"`
	Date      datatypes.Date `gorm:"index;not null" json:"date"`
	Time      datatypes.Time `gorm:"not null" json:"time"`
	Venue     string         `gorm:"not null" json:"venue"`
	Status    string         `gorm:"not null;default:scheduled" json:"status"`
	Image     string         `json:"image"`
	Notes     string         `json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Fixture) TableName() string { return TableFixtures }

const (
	FixtureScheduled = "scheduled"
	FixtureOngoing   = "ongoing"
	FixtureCompleted = "completed"
	FixtureCancelled = "cancelled"
)

// ---------------- MEDIA ----------------
type Media struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Type        string         `gorm:"not null" json:"type"`
	Sport       string         `gorm:"index" json:"sport"`
	URL         string         `gorm:"column:url;not null" json:"url"`
	YouTubeURL  string         `gorm:"column:youtube_url" json:"youtube_url"`
	Description string         `json:"description"`
	Tags        datatypes.JSON `json:"tags"` // []string
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Media) TableName() string { return TableMedia }

// TagList decodes the tags column, keeping stored order.
func (m Media) TagList() []string {
	var tags []string
	_ = json.Unmarshal(m.Tags, &tags)
	return tags
}

const (
	MediaPhoto = "photo"
	MediaVideo = "video"
)

// ---------------- RESULTS ----------------
type Result struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FixtureID  uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"fixture_id"`
	Team1Score int        `gorm:"column:team1_score;not null" json:"team1_score"`
	Team2Score int        `gorm:"column:team2_score;not null" json:"team2_score"`
	WinnerID   *uuid.UUID `gorm:"type:uuid" json:"winner_id"` // nil = draw
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Result) TableName() string { return TableResults }

// ---------------- MESSAGES ----------------
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `gorm:"not null" json:"subject"`
	Body      string    `gorm:"column:message;not null" json:"message"`
	Status    string    `gorm:"not null;default:unread;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Message) TableName() string { return TableMessages }

const (
	MessageUnread   = "unread"
	MessageRead     = "read"
	MessageReplied  = "replied"
	MessageArchived = "archived"
)

// ---------------- PRESS ----------------
type Press struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type        string         `gorm:"not null;index" json:"type"`
	Title       string         `gorm:"not null" json:"title"`
	Image       string         `json:"image"`
	Content     string         `json:"content"`
	AuthorName  string         `json:"author_name"`
	Source      string         `json:"source"`
	NewsLink    string         `gorm:"index" json:"news_link"`
	PublishDate datatypes.Date `json:"publish_date"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Press) TableName() string { return TablePress }

const (
	PressRelease = "press_release"
	PressNews    = "news"
)

// NewRow returns a pointer to an empty row for table, for scanning untyped writes.
func NewRow(table string) (any, bool) {
	switch table {
	case TableClubs:
		return &Club{}, true
	case TableFixtures:
		return &Fixture{}, true
	case TableMedia:
		return &Media{}, true
	case TableResults:
		return &Result{}, true
	case TableMessages:
		return &Message{}, true
	case TablePress:
		return &Press{}, true
	}
	return nil, false
}

// NewRows returns a pointer to an empty slice of table's model.
func NewRows(table string) (any, bool) {
	switch table {
	case TableClubs:
		return &[]Club{}, true
	case TableFixtures:
		return &[]Fixture{}, true
	case TableMedia:
		return &[]Media{}, true
	case TableResults:
		return &[]Result{}, true
	case TableMessages:
		return &[]Message{}, true
	case TablePress:
		return &[]Press{}, true
	}
	return nil, false
}
