package model

import "time"

// Visit одна запись о переходе по короткой ссылке.
type Visit struct {
	Timestamp int64 `json:"timestamp" bson:"timestamp"` // Unix-время в миллисекундах
}

// NewVisit создаёт запись о переходе для момента t.
func NewVisit(t time.Time) Visit {
	return Visit{Timestamp: t.UnixMilli()}
}

// ShortLink сопоставление короткого идентификатора и оригинального URL.
type ShortLink struct {
	ID           string    `json:"_id" bson:"_id"`
	ShortID      string    `json:"shortId" bson:"shortId"`
	LongURL      string    `json:"longUrl" bson:"longUrl"`
	CreatedBy    string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	VisitHistory []Visit   `json:"visitHistory" bson:"visitHistory"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// TotalClicks количество зафиксированных переходов.
func (l *ShortLink) TotalClicks() int {
	return len(l.VisitHistory)
}

// OwnedBy сообщает, создана ли ссылка пользователем userID.
func (l *ShortLink) OwnedBy(userID string) bool {
	return l.CreatedBy != "" && l.CreatedBy == userID
}

// Clone возвращает копию ссылки, не разделяющую историю переходов с оригиналом.
func (l *ShortLink) Clone() *ShortLink {
	c := *l
	c.VisitHistory = make([]Visit, len(l.VisitHistory))
	copy(c.VisitHistory, l.VisitHistory)
	return &c
}
