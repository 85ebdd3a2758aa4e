package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReminderDaily   ReminderFrequency = "DAILY"
	ReminderWeekly  ReminderFrequency = "WEEKLY"
	ReminderMonthly ReminderFrequency = "MONTHLY"

	NotifyPaymentReminder     NotificationType = "PAYMENT_REMINDER"
	NotifyPaymentConfirmation NotificationType = "PAYMENT_CONFIRMATION"
	NotifyLowReserves         NotificationType = "LOW_RESERVES"
	NotifyCustom              NotificationType = "CUSTOM"

	ChannelEmail   Channel = "EMAIL"
	ChannelDiscord Channel = "DISCORD"
	ChannelSMS     Channel = "SMS"

	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"

	DefaultChapterName = "Your Fraternity Chapter"
	DefaultEmailPort   = 587
)

var (
	DefaultSemesterDues = Dollars(500)
	DefaultMinReserve   = Dollars(2000)
)

type (
	ReminderFrequency  string
	NotificationType   string
	Channel            string
	NotificationStatus string

	// ChapterSettings is the single chapter-wide configuration row. It is read
	// fresh for each operation and passed explicitly.
	ChapterSettings struct {
		ChapterName         string            `json:"chapterName"`
		SemesterDuesAmount  Money             `json:"semesterDuesAmount"`
		MinReserveThreshold Money             `json:"minReserveThreshold"`
		LateFeePercentage   decimal.Decimal   `json:"lateFeePercentage"`
		LateFeeGracePeriod  int               `json:"lateFeeGracePeriod"`
		EmailEnabled        bool              `json:"emailEnabled"`
		EmailHost           string            `json:"emailHost,omitempty"`
		EmailPort           int               `json:"emailPort,omitempty"`
		EmailUser           string            `json:"emailUser,omitempty"`
		EmailPassword       string            `json:"-"`
		DiscordEnabled      bool              `json:"discordEnabled"`
		DiscordBotToken     string            `json:"-"`
		DiscordChannelID    string            `json:"discordChannelId,omitempty"`
		ReminderFrequency   ReminderFrequency `json:"reminderFrequency"`
		UpdatedAt           time.Time         `json:"updatedAt"`
	}

	// SettingsUpdate carries a partial settings change. Nil fields are left
	// untouched; secrets are write-only.
	SettingsUpdate struct {
		ChapterName         *string            `json:"chapterName"`
		SemesterDuesAmount  *Money             `json:"semesterDuesAmount"`
		MinReserveThreshold *Money             `json:"minReserveThreshold"`
		LateFeePercentage   *decimal.Decimal   `json:"lateFeePercentage"`
		LateFeeGracePeriod  *int               `json:"lateFeeGracePeriod"`
		EmailEnabled        *bool              `json:"emailEnabled"`
		EmailHost           *string            `json:"emailHost"`
		EmailPort           *int               `json:"emailPort"`
		EmailUser           *string            `json:"emailUser"`
		EmailPassword       *string            `json:"emailPassword"`
		DiscordEnabled      *bool              `json:"discordEnabled"`
		DiscordBotToken     *string            `json:"discordBotToken"`
		DiscordChannelID    *string            `json:"discordChannelId"`
		ReminderFrequency   *ReminderFrequency `json:"reminderFrequency"`
	}

	Notification struct {
		ID        string             `json:"id"`
		Type      NotificationType   `json:"type"`
		Channel   Channel            `json:"channel"`
		Recipient string             `json:"recipient"`
		Subject   string             `json:"subject,omitempty"`
		Message   string             `json:"message"`
		Status    NotificationStatus `json:"status"`
		MemberID  string             `json:"memberId,omitempty"`
		SentAt    *time.Time         `json:"sentAt,omitempty"`
		CreatedAt time.Time          `json:"createdAt"`
	}
)

// DefaultSettings is what a fresh chapter starts with.
func DefaultSettings() ChapterSettings {
	return ChapterSettings{
		ChapterName:         DefaultChapterName,
		SemesterDuesAmount:  DefaultSemesterDues,
		MinReserveThreshold: DefaultMinReserve,
		LateFeePercentage:   decimal.RequireFromString("0.05"),
		LateFeeGracePeriod:  7,
		EmailPort:           DefaultEmailPort,
		ReminderFrequency:   ReminderWeekly,
	}
}

// Public returns a copy with secret fields blanked.
func (s ChapterSettings) Public() ChapterSettings {
	s.EmailPassword = ""
	s.DiscordBotToken = ""
	return s
}

// EmailConfigured reports whether SMTP delivery can be attempted.
func (s ChapterSettings) EmailConfigured() bool {
	return s.EmailEnabled && s.EmailHost != "" && s.EmailUser != "" && s.EmailPassword != ""
}

// DiscordConfigured reports whether a Discord channel message can be attempted.
func (s ChapterSettings) DiscordConfigured() bool {
	return s.DiscordEnabled && s.DiscordBotToken != "" && s.DiscordChannelID != ""
}

func (f ReminderFrequency) Valid() bool {
	switch f {
	case ReminderDaily, ReminderWeekly, ReminderMonthly:
		return true
	}
	return false
}

// Apply merges u into s and validates the result.
func (s ChapterSettings) Apply(u SettingsUpdate) (ChapterSettings, error) {
	if u.ChapterName != nil {
		s.ChapterName = *u.ChapterName
	}
	if u.SemesterDuesAmount != nil {
		s.SemesterDuesAmount = *u.SemesterDuesAmount
	}
	if u.MinReserveThreshold != nil {
		s.MinReserveThreshold = *u.MinReserveThreshold
	}
	if u.LateFeePercentage != nil {
		s.LateFeePercentage = *u.LateFeePercentage
	}
	if u.LateFeeGracePeriod != nil {
		s.LateFeeGracePeriod = *u.LateFeeGracePeriod
	}
	if u.EmailEnabled != nil {
		s.EmailEnabled = *u.EmailEnabled
	}
	if u.EmailHost != nil {
		s.EmailHost = *u.EmailHost
	}
	if u.EmailPort != nil {
		s.EmailPort = *u.EmailPort
	}
	if u.EmailUser != nil {
		s.EmailUser = *u.EmailUser
	}
	if u.EmailPassword != nil {
		s.EmailPassword = *u.EmailPassword
	}
	if u.DiscordEnabled != nil {
		s.DiscordEnabled = *u.DiscordEnabled
	}
	if u.DiscordBotToken != nil {
		s.DiscordBotToken = *u.DiscordBotToken
	}
	if u.DiscordChannelID != nil {
		s.DiscordChannelID = *u.DiscordChannelID
	}
	if u.ReminderFrequency != nil {
		s.ReminderFrequency = *u.ReminderFrequency
	}
	return s, s.Validate()
}

func (s ChapterSettings) Validate() error {
	if s.SemesterDuesAmount.Cents < 0 || s.MinReserveThreshold.Cents < 0 {
		return invalid("amounts cannot be negative")
	}
	if s.LateFeePercentage.IsNegative() || s.LateFeePercentage.GreaterThan(decimal.NewFromInt(1)) {
		return invalid("lateFeePercentage must be between 0 and 1")
	}
	if s.LateFeeGracePeriod < 0 {
		return invalid("lateFeeGracePeriod cannot be negative")
	}
	if s.EmailPort < 0 || s.EmailPort > 65535 {
		return invalid("invalid emailPort %d", s.EmailPort)
	}
	if !s.ReminderFrequency.Valid() {
		return invalid("invalid reminderFrequency %q", s.ReminderFrequency)
	}
	return nil
}
