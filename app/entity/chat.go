package entity

import "time"

// ChatExchange is one question/answer pair in a user's chat history.
type ChatExchange struct {
	Timestamp   time.Time
	ChatType    string
	UserMessage string
	Reply       string
}

// TrashItem is a discarded upload awaiting deletion. The file stays on disk
// until the trash is emptied.
type TrashItem struct {
	FileName  string
	Path      string
	DeletedAt time.Time
}
