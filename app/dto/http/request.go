package http

import (
	"errors"
	"strings"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	if n := len(strings.TrimSpace(r.Name)); n < 3 || n > 100 {
		return errors.New("name must be between 3 and 100 characters")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return errors.New("refresh_token is required")
	}
	return nil
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

func (r *PasswordResetRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r *PasswordResetConfirmRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" || strings.TrimSpace(r.NewPassword) == "" {
		return errors.New("token and new_password are required")
	}
	return nil
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name == nil && r.Email == nil {
		return errors.New("nothing to update")
	}
	if r.Name != nil && len(*r.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}
	if r.Email != nil && strings.TrimSpace(*r.Email) == "" {
		return errors.New("email must not be empty")
	}
	return nil
}

type ValidateTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func (r *ValidateTokenRequest) Validate() error {
	if strings.TrimSpace(r.AccessToken) == "" {
		return errors.New("access_token is required")
	}
	return nil
}

type GenerateReportRequest struct {
	Type   string `json:"type"`
	CodVD  string `json:"codvd"`
	Vendor string `json:"vendedor"`
	Format string `json:"format"`
}

func (r *GenerateReportRequest) Validate() error {
	if strings.TrimSpace(r.Type) == "" || strings.TrimSpace(r.CodVD) == "" {
		return errors.New("type and codvd are required")
	}
	switch r.Format {
	case "", "json", "excel", "pdf":
	default:
		return errors.New("format must be one of json, excel, pdf")
	}
	return nil
}

type ChatMessageRequest struct {
	ChatType string `json:"chat_type"`
	Message  string `json:"message"`
	FileName string `json:"file_name,omitempty"`
}

func (r *ChatMessageRequest) Validate() error {
	if strings.TrimSpace(r.ChatType) == "" || strings.TrimSpace(r.Message) == "" {
		return errors.New("chat_type and message are required")
	}
	return nil
}

type WhatsAppSendRequest struct {
	Phone    string `json:"telefone"`
	Message  string `json:"mensagem"`
	MediaURL string `json:"media_url,omitempty"`
}

func (r *WhatsAppSendRequest) Validate() error {
	if strings.TrimSpace(r.Phone) == "" || strings.TrimSpace(r.Message) == "" {
		return errors.New("telefone and mensagem are required")
	}
	return nil
}

type GenerateChartRequest struct {
	GraphType      string              `json:"graph_type"`
	Title          string              `json:"title"`
	DataColumn     string              `json:"data_column"`
	CategoryColumn string              `json:"category_column"`
	StoredFile     string              `json:"stored_file"`
	Rows           []map[string]string `json:"rows"`
}

func (r *GenerateChartRequest) Validate() error {
	if strings.TrimSpace(r.GraphType) == "" || strings.TrimSpace(r.DataColumn) == "" {
		return errors.New("graph_type and data_column are required")
	}
	if r.StoredFile == "" && len(r.Rows) == 0 {
		return errors.New("either stored_file or rows is required")
	}
	if r.StoredFile != "" && len(r.Rows) > 0 {
		return errors.New("stored_file and rows are mutually exclusive")
	}
	return nil
}
