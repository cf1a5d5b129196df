package model

// Операции журнала файлового хранилища.
const (
	OpCreateLink = "link.create"
	OpVisit      = "link.visit"
	OpDeleteLink = "link.delete"
	OpSaveUser   = "user.save"
	OpDeleteUser = "user.delete"
)

// Entry представляет структуру записи в файле журнала
type Entry struct {
	Op        string     `json:"op"`
	Link      *ShortLink `json:"link,omitempty"`
	User      *User      `json:"user,omitempty"`
	Password  string     `json:"password,omitempty"` // User.PasswordHash не сериализуется в JSON
	ShortID   string     `json:"short_id,omitempty"`
	ID        string     `json:"id,omitempty"`
	Timestamp int64      `json:"ts,omitempty"`
}
