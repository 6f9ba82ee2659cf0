package entity

// AnalysisRequest is the unit of work that triggers one pipeline run.
type AnalysisRequest struct {
	FamilyID  string `json:"FamilyId"`
	UserEmail string `json:"UserEmail"`
}

// NotificationEvent is produced once per successful analysis run.
type NotificationEvent struct {
	UserEmail string           `json:"userEmail"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Data      NotificationData `json:"data"`
}

// NotificationData is the structured payload attached to a notification.
type NotificationData struct {
	Type   string `json:"type"`
	ListID string `json:"listId"`
}
