package model

// ChannelStats is a point-in-time snapshot served by the diagnostics surface.
type ChannelStats struct {
	State         string `json:"state"`
	ConnectionID  string `json:"connection_id,omitempty"`
	Attempts      int    `json:"attempts"`
	BackoffMillis int64  `json:"backoff_ms"`
	Subscribers   int    `json:"subscribers"`
}

// QueueStats reports the outbound delivery queue.
type QueueStats struct {
	Pending int `json:"pending"`
	Tracked int `json:"tracked"`
}

// HistoryStats reports the notification history store.
type HistoryStats struct {
	Records int `json:"records"`
	Unread  int `json:"unread"`
}

// Stats aggregates every component snapshot for the /stats endpoint.
type Stats struct {
	Channel ChannelStats `json:"channel"`
	Queue   QueueStats   `json:"queue"`
	History HistoryStats `json:"history"`
}
