package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-reports/app/entity"
)

type stubTableLoader struct {
	table *entity.Table
	err   error
	calls int
}

func (s *stubTableLoader) StoredTable(string) (*entity.Table, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

func newTestChatService(t *testing.T, loader *stubTableLoader) *ChatService {
	t.Helper()
	return NewChatService(loader, t.TempDir(), 30*time.Minute)
}

func TestReplyRejectsUnknownChatType(t *testing.T) {
	svc := newTestChatService(t, &stubTableLoader{})

	if _, err := svc.Reply("user_0", "exp", "quantos registros?", ""); !errors.Is(err, ErrUnknownChatType) {
		t.Fatalf("expected ErrUnknownChatType, got %v", err)
	}
}

func TestReplyTemplatesPerChatType(t *testing.T) {
	tests := []struct {
		chatType string
		table    *entity.Table
		want     string
	}{
		{
			chatType: "novos_clientes",
			table: &entity.Table{
				Columns: []string{"CIDADE"},
				Rows:    []map[string]string{{"CIDADE": "Fortaleza"}, {"CIDADE": "Sobral"}},
			},
			want: "2 novos clientes",
		},
		{
			chatType: "queijo_reino",
			table: &entity.Table{
				Columns: []string{"Valor"},
				Rows:    []map[string]string{{"Valor": "10.5"}, {"Valor": "4.5"}},
			},
			want: "R$ 15.00",
		},
		{
			chatType: "nao_cobertos_clientes",
			table: &entity.Table{
				Columns: []string{"CODVD"},
				Rows:    []map[string]string{{"CODVD": "100"}, {"CODVD": "200"}, {"CODVD": "300"}},
			},
			want: "3 clientes não cobertos",
		},
		{
			chatType: "msl_mini",
			table: &entity.Table{
				Columns: []string{"CODVD"},
				Rows:    []map[string]string{{"CODVD": "100"}},
			},
			want: "1 registros disponíveis para msl_mini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.chatType, func(t *testing.T) {
			svc := newTestChatService(t, &stubTableLoader{table: tt.table})

			reply, err := svc.Reply("user_0", tt.chatType, "como estão os números?", "data.xlsx")
			if err != nil {
				t.Fatalf("reply failed: %v", err)
			}
			if !strings.Contains(reply.Reply, tt.want) {
				t.Fatalf("reply %q missing %q", reply.Reply, tt.want)
			}
		})
	}
}

func TestSummarizeQueijoReinoSalesAggregates(t *testing.T) {
	// Second-choice sales column and an unparseable cell, which counts as zero.
	table := &entity.Table{
		Columns: []string{"CODVD", "vendas"},
		Rows: []map[string]string{
			{"CODVD": "100", "vendas": "30"},
			{"CODVD": "200", "vendas": "abc"},
			{"CODVD": "300", "vendas": "60"},
		},
	}

	summary := summarizeTable(table, "queijo_reino")
	if summary.SalesTotal != 90 {
		t.Fatalf("expected total 90, got %v", summary.SalesTotal)
	}
	if summary.SalesMax != 60 {
		t.Fatalf("expected max 60, got %v", summary.SalesMax)
	}
	if summary.SalesMean != 30 {
		t.Fatalf("expected mean 30, got %v", summary.SalesMean)
	}
	if summary.TotalRows != 3 {
		t.Fatalf("expected 3 rows, got %d", summary.TotalRows)
	}
}

func TestReplyCachesSummaryPerChatType(t *testing.T) {
	loader := &stubTableLoader{table: &entity.Table{
		Columns: []string{"CIDADE"},
		Rows:    []map[string]string{{"CIDADE": "Fortaleza"}},
	}}
	svc := newTestChatService(t, loader)

	for i := 0; i < 3; i++ {
		if _, err := svc.Reply("user_0", "novos_clientes", "novidades?", "data.xlsx"); err != nil {
			t.Fatalf("reply failed: %v", err)
		}
	}
	if loader.calls != 1 {
		t.Fatalf("expected 1 load while cached, got %d", loader.calls)
	}

	if err := svc.ClearCache("novos_clientes"); err != nil {
		t.Fatalf("clear cache failed: %v", err)
	}
	if _, err := svc.Reply("user_0", "novos_clientes", "novidades?", "data.xlsx"); err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after cache clear, got %d loads", loader.calls)
	}
}

func TestReplyReusesLearnedPattern(t *testing.T) {
	loader := &stubTableLoader{table: &entity.Table{
		Columns: []string{"CIDADE"},
		Rows:    []map[string]string{{"CIDADE": "Fortaleza"}},
	}}
	svc := newTestChatService(t, loader)

	first, err := svc.Reply("user_0", "novos_clientes", "quantos clientes novos temos", "data.xlsx")
	if err != nil {
		t.Fatalf("reply failed: %v", err)
	}

	// Identical wording matches the learned pattern even after the cache is
	// gone, so the answer is served without reloading.
	if err := svc.ClearCache("novos_clientes"); err != nil {
		t.Fatalf("clear cache failed: %v", err)
	}
	second, err := svc.Reply("user_0", "novos_clientes", "quantos clientes novos temos", "")
	if err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if second.Reply != first.Reply {
		t.Fatalf("expected learned reply %q, got %q", first.Reply, second.Reply)
	}
}

func TestReplyPropagatesLoaderError(t *testing.T) {
	svc := newTestChatService(t, &stubTableLoader{err: ErrStoredFileMissing})

	if _, err := svc.Reply("user_0", "msl_super", "status?", "missing.xlsx"); !errors.Is(err, ErrStoredFileMissing) {
		t.Fatalf("expected ErrStoredFileMissing, got %v", err)
	}
}

func TestClearCacheRejectsUnknownChatType(t *testing.T) {
	svc := newTestChatService(t, &stubTableLoader{})

	if err := svc.ClearCache("exp"); !errors.Is(err, ErrUnknownChatType) {
		t.Fatalf("expected ErrUnknownChatType, got %v", err)
	}
}

func TestHistoryIsPerUser(t *testing.T) {
	svc := newTestChatService(t, &stubTableLoader{})

	if _, err := svc.Reply("user_0", "msl_mini", "bom dia", ""); err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if _, err := svc.Reply("user_1", "msl_mini", "boa tarde", ""); err != nil {
		t.Fatalf("reply failed: %v", err)
	}

	entries := svc.History("user_0")
	if len(entries) != 1 {
		t.Fatalf("expected 1 exchange for user_0, got %d", len(entries))
	}
	if entries[0].UserMessage != "bom dia" {
		t.Fatalf("unexpected message: %q", entries[0].UserMessage)
	}
	if entries[0].Reply == "" {
		t.Fatal("expected a recorded reply")
	}
	if len(svc.History("user_2")) != 0 {
		t.Fatal("expected empty history for unseen user")
	}
}

func TestDiscardAndEmptyTrash(t *testing.T) {
	uploads := t.TempDir()
	svc := NewChatService(&stubTableLoader{}, uploads, 30*time.Minute)

	path := filepath.Join(uploads, "msl.xlsx")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	item, err := svc.Discard("msl.xlsx")
	if err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if item.FileName != "msl.xlsx" {
		t.Fatalf("unexpected trash name: %q", item.FileName)
	}
	// Soft delete: the file survives until the trash is emptied.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to remain on disk: %v", err)
	}

	items := svc.Trash()
	if len(items) != 1 || items[0].FileName != "msl.xlsx" {
		t.Fatalf("unexpected trash listing: %+v", items)
	}

	if removed := svc.EmptyTrash(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file deleted, got %v", err)
	}
	if len(svc.Trash()) != 0 {
		t.Fatal("expected empty trash after emptying")
	}
}

func TestDiscardRejectsBadNames(t *testing.T) {
	svc := newTestChatService(t, &stubTableLoader{})

	if _, err := svc.Discard(".."); !errors.Is(err, ErrUnsafeFilename) {
		t.Fatalf("expected ErrUnsafeFilename, got %v", err)
	}
	if _, err := svc.Discard("nope.xlsx"); !errors.Is(err, ErrStoredFileMissing) {
		t.Fatalf("expected ErrStoredFileMissing, got %v", err)
	}
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "quantos clientes novos", "quantos clientes novos", 1},
		{"disjoint", "bom dia", "boa tarde", 0},
		{"partial", "quantos clientes", "quantos registros", 1.0 / 3.0},
		{"both empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(wordSet(tt.a), wordSet(tt.b))
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
