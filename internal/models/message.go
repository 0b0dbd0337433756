package models

// Message sources
const (
	SourceIMessage = "iMessage"
	SourceWhatsApp = "WhatsApp"
)

// Message is an outgoing message authored by the subject
type Message struct {
	Text      string `json:"text"`
	Source    string `json:"source"`
	Contact   string `json:"contact,omitempty"`
	Timestamp string `json:"timestamp"` // Raw timestamp as stored by the collector
}

// BrowserVisit is one row of browser history
type BrowserVisit struct {
	URL        string `json:"url"`
	Timestamp  string `json:"timestamp"`
	VisitCount int    `json:"visit_count"`
}
