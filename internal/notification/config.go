package notification

// SMTPConfig holds connection parameters for the SMTP provider.
type SMTPConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	FromAddr   string `json:"from_address"`
	ToAddrs    string `json:"to_addresses"`
	Encryption string `json:"encryption"` // "none", "starttls", "ssl_tls"
}

// EventPreferences controls which match events are delivered by email.
// Pointers distinguish "unset" (treated as enabled) from an explicit false.
type EventPreferences struct {
	OnGameStart       *bool `json:"on_game_start,omitempty"`
	OnGameEnd         *bool `json:"on_game_end,omitempty"`
	OnUpcomingFixture *bool `json:"on_upcoming_fixture,omitempty"`
}

func enabled(v *bool) bool { return v == nil || *v }

// GameStartEnabled reports whether GAME_START emails are enabled.
func (p EventPreferences) GameStartEnabled() bool { return enabled(p.OnGameStart) }

// GameEndEnabled reports whether GAME_END emails are enabled.
func (p EventPreferences) GameEndEnabled() bool { return enabled(p.OnGameEnd) }

// UpcomingFixtureEnabled reports whether UPCOMING_FIXTURE emails are enabled.
func (p EventPreferences) UpcomingFixtureEnabled() bool { return enabled(p.OnUpcomingFixture) }

// Settings represents the persisted email notification configuration.
// Email delivery is a best-effort side channel; the in-app inbox is the
// authoritative notification feed.
type Settings struct {
	Enabled     bool             `json:"enabled"`
	Provider    SMTPConfig       `json:"provider"`
	Preferences EventPreferences `json:"preferences"`
}
