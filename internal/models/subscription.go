package models

import (
	"strings"
	"time"
)

// CampaignSubscriptionModel is one (email, campaign) opt-in. At most one row
// exists per pair; writes are idempotent merges keyed on DocID.
type CampaignSubscriptionModel struct {
	Base
	DocID                string     `json:"docId"                gorm:"uniqueIndex;size:191;not null"`
	Name                 string     `json:"name"                 gorm:"not null"`
	Email                string     `json:"email"                gorm:"index;not null"`
	CampaignID           string     `json:"campaignId"           gorm:"index;not null"`
	CampaignTitle        string     `json:"campaignTitle"`
	CampaignURL          string     `json:"campaignUrl"`
	SubmittedAt          time.Time  `json:"submittedAt"`
	IPAddress            string     `json:"ipAddress"`
	UserAgent            string     `json:"userAgent"            gorm:"size:512"`
	NotificationsEnabled bool       `json:"notificationsEnabled" gorm:"default:false"`
	DeviceToken          string     `json:"-"                    gorm:"index;size:512"`
	TokenUpdatedAt       *time.Time `json:"tokenUpdatedAt,omitempty"`
	TokenRemovedAt       *time.Time `json:"tokenRemovedAt,omitempty"`
	TokenRemovedReason   string     `json:"tokenRemovedReason,omitempty"`
}

func (CampaignSubscriptionModel) TableName() string { return "campaign_subscriptions" }

// CampaignRef is the per-campaign entry inside a user index record.
type CampaignRef struct {
	SubscribedAt         time.Time `json:"subscribedAt"`
	CampaignTitle        string    `json:"campaignTitle"`
	CampaignURL          string    `json:"campaignUrl"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
}

// TokenRef is the per-device-token entry inside a user index record. One
// token can back subscriptions to several campaigns.
type TokenRef struct {
	AddedAt   time.Time `json:"addedAt"`
	Campaigns []string  `json:"campaigns"`
}

// UserSubscriptionModel indexes everything one email address has subscribed
// to. Updated on every subscription event, never deleted automatically.
type UserSubscriptionModel struct {
	Base
	Email        string                 `json:"email"        gorm:"uniqueIndex;size:191;not null"`
	Name         string                 `json:"name"`
	Campaigns    map[string]CampaignRef `json:"campaigns"    gorm:"type:longtext;serializer:json"`
	DeviceTokens map[string]TokenRef    `json:"deviceTokens" gorm:"type:longtext;serializer:json"`
	LastUpdated  time.Time              `json:"lastUpdated"`
}

func (UserSubscriptionModel) TableName() string { return "user_subscriptions" }

// NormalizeEmail lowercases and trims an address; all record keying goes
// through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SubscriptionDocID builds the deterministic subscriber key.
func SubscriptionDocID(email, campaignID string) string {
	return NormalizeEmail(email) + "_" + strings.TrimSpace(campaignID)
}
