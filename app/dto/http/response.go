package http

type RegisterResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type LogoutResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type MeResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type UpdateProfileResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	User    map[string]string `json:"user"`
}

type PasswordResetResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}

type PasswordResetConfirmResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

type UploadResponse struct {
	FileID   string   `json:"file_id"`
	Filename string   `json:"filename"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
	Path     string   `json:"path"`
}

type ReportResponse struct {
	Type         string              `json:"type"`
	CodVD        string              `json:"codvd"`
	Vendor       string              `json:"vendedor"`
	TotalRecords int                 `json:"total_records"`
	Records      []map[string]string `json:"records"`
}

type HistoryEntry struct {
	Timestamp  string `json:"timestamp"`
	User       string `json:"usuario"`
	ReportType string `json:"tipo"`
	CodVD      string `json:"codvd"`
	Vendor     string `json:"vendedor"`
	Records    int    `json:"registros"`
}

type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

type ChartResponse struct {
	ChartURL  string `json:"chart_url"`
	ChartPath string `json:"chart_path"`
}

type ChatSummaryPayload struct {
	TotalRows      int                 `json:"total_rows"`
	Columns        []string            `json:"columns,omitempty"`
	Records        []map[string]string `json:"records,omitempty"`
	SalesTotal     float64             `json:"vendas_total,omitempty"`
	SalesMean      float64             `json:"media,omitempty"`
	SalesMax       float64             `json:"max,omitempty"`
	TotalUncovered int                 `json:"total_nao_cobertos,omitempty"`
}

type ChatMessageResponse struct {
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Data      *ChatSummaryPayload `json:"data,omitempty"`
	Timestamp string              `json:"timestamp"`
}

type ChatHistoryEntry struct {
	ChatType    string `json:"chat_type"`
	UserMessage string `json:"user_message"`
	Reply       string `json:"ai_response"`
	Timestamp   string `json:"timestamp"`
}

type ChatHistoryResponse struct {
	Status  string             `json:"status"`
	History []ChatHistoryEntry `json:"history"`
	Total   int                `json:"total"`
}

type ClearCacheResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TrashItemInfo struct {
	FileName  string `json:"file_name"`
	DeletedAt string `json:"deleted_at"`
}

type TrashListResponse struct {
	Status string          `json:"status"`
	Items  []TrashItemInfo `json:"trash_items"`
	Total  int             `json:"total"`
}

type TrashEmptyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

type DiscardResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	FileName string `json:"file_name"`
}

type WhatsAppSendResponse struct {
	Status    string `json:"status"`
	Phone     string `json:"telefone"`
	Timestamp string `json:"timestamp"`
}

type SheetInfo struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords,omitempty"`
	Type     string   `json:"type,omitempty"`
	Rows     int      `json:"rows"`
	HasData  bool     `json:"has_data"`
}

type SheetListResponse struct {
	Sheets    []SheetInfo `json:"sheets"`
	Total     int         `json:"total"`
	Timestamp string      `json:"timestamp"`
}

type SheetDataResponse struct {
	ID        string              `json:"id"`
	Label     string              `json:"label"`
	Rows      int                 `json:"rows"`
	Data      []map[string]string `json:"data"`
	Timestamp string              `json:"timestamp"`
}

type SheetReloadResponse struct {
	Status    string               `json:"status"`
	Message   string               `json:"message"`
	Timestamp string               `json:"timestamp"`
	Data      map[string]SheetInfo `json:"data"`
}

type StatusResponse struct {
	Loading    bool     `json:"loading"`
	LastUpdate string   `json:"lastUpdate,omitempty"`
	Reports    []string `json:"reports"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
