package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventQuerySubmitted EventType = "QuerySubmitted"
	EventFactsLoaded    EventType = "FactsLoaded"
	EventFetchFailed    EventType = "FetchFailed"
	EventConfigLoaded   EventType = "ConfigLoaded"
	EventConfigSaved    EventType = "ConfigSaved"
	EventConfigChanged  EventType = "ConfigChanged"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// QuerySubmittedEvent is emitted when a query or a suggestion is sent to the
// retrieval layer
type QuerySubmittedEvent struct {
	Kind  FetchKind
	Query string
}

func (e QuerySubmittedEvent) Type() EventType { return EventQuerySubmitted }

// FactsLoadedEvent is emitted when a fetch cycle finishes without error
type FactsLoadedEvent struct {
	Kind      FetchKind
	Query     string
	Count     int
	Requested int // only set for random fetches
}

func (e FactsLoadedEvent) Type() EventType { return EventFactsLoaded }

// FetchFailedEvent is emitted when a fetch cycle ends with a user visible error
type FetchFailedEvent struct {
	Kind  FetchKind
	Query string
	Err   error
}

func (e FetchFailedEvent) Type() EventType { return EventFetchFailed }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path    string
	BaseURL string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ConfigChangedEvent is emitted when configuration needs to be saved
type ConfigChangedEvent struct {
	Recent []string // recent queries, newest first
}

func (e ConfigChangedEvent) Type() EventType { return EventConfigChanged }
