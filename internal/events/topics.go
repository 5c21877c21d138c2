package events

const (
	TopicTabsChanged      = "tabs.changed"
	TopicHistoryChanged   = "history.changed"
	TopicDownloadsChanged = "downloads.changed"
	TopicSettingsChanged  = "settings.changed"
)
