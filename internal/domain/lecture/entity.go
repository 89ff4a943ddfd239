// internal/domain/lecture/entity.go
package lecture

import "time"

// Session is one uploaded lecture recording with its transcript.
type Session struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Language    string    `json:"language"`
	Content     string    `json:"content"` // transcript text
	TeacherName string    `json:"teacherName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary is the generated summary of a session's transcript.
type Summary struct {
	ID          int    `json:"id"`
	SessionID   int    `json:"sessionId"`
	SummaryText string `json:"summaryText"`
}

// Translation is a transcript translated into a target language.
type Translation struct {
	ID        int    `json:"id"`
	SessionID int    `json:"sessionId"`
	Language  string `json:"language"`
	Content   string `json:"content,omitempty"`
}
