package dto

import "github.com/vibast-solutions/ms-go-reports/app/entity"

type RegisterResult struct {
	User *entity.User
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	UserID       string
}

type UploadResult struct {
	FileID   string
	Filename string
	Rows     int
	Columns  []string
	Path     string
}

type ReportResult struct {
	Type   string
	CodVD  string
	Vendor string
	Table  *entity.Table
}

// ChatSummary is the per-chat-type digest of a loaded spreadsheet. Only the
// fields relevant to the chat type are populated.
type ChatSummary struct {
	TotalRows      int
	Columns        []string
	Records        []map[string]string
	SalesTotal     float64
	SalesMean      float64
	SalesMax       float64
	TotalUncovered int
}

type ChatReply struct {
	Reply   string
	Summary *ChatSummary
}

type WhatsAppReceipt struct {
	Status   string
	Phone    string
	Message  string
	MediaURL string
	SentAt   string
}

type SheetSummary struct {
	ID       string
	Label    string
	Keywords []string
	Type     string
	Rows     int
	HasData  bool
}
