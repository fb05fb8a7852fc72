package rooms

import "time"

type participantResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

type roomResponse struct {
	ID           string                `json:"id"`
	Code         string                `json:"code"`
	CreatedAt    time.Time             `json:"createdAt"`
	HostOnline   bool                  `json:"hostOnline"`
	LiveMembers  int                   `json:"liveMembers"`
	MemberCount  int                   `json:"memberCount"`
	Participants []participantResponse `json:"participants"`
}

type incidentResponse struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	UserName      string    `json:"userName,omitempty"`
	Kind          string    `json:"kind"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

type incidentsResponse struct {
	RoomCode  string             `json:"roomCode"`
	Incidents []incidentResponse `json:"incidents"`
}

type auditEntryResponse struct {
	ID        string         `json:"id"`
	EventType string         `json:"eventType"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type auditResponse struct {
	RoomCode string               `json:"roomCode"`
	Entries  []auditEntryResponse `json:"entries"`
}
