package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-reports/app/dto"
	"github.com/vibast-solutions/ms-go-reports/app/entity"
	"github.com/vibast-solutions/ms-go-reports/app/metrics"

	"github.com/sirupsen/logrus"
)

var ErrUnknownChatType = errors.New("unknown chat type")

// A learned pattern only answers a question when the word overlap clears
// this Jaccard threshold.
const chatPatternThreshold = 0.7

var chatTypes = map[string]bool{
	"novos_clientes":          true,
	"queijo_reino":            true,
	"nao_cobertos_clientes":   true,
	"nao_cobertos_fornecedor": true,
	"msl_danone":              true,
	"msl_otg":                 true,
	"msl_mini":                true,
	"msl_super":               true,
}

// salesColumns are tried in order when summarizing queijo_reino data.
var salesColumns = []string{"Valor", "valor", "Vendas", "vendas", "amount"}

type chatPattern struct {
	words     map[string]struct{}
	reply     string
	frequency int
}

type chatCacheEntry struct {
	summary dto.ChatSummary
	updated time.Time
}

type storedTableLoader interface {
	StoredTable(storedFile string) (*entity.Table, error)
}

// ChatService answers keyword questions about the uploaded spreadsheets. Per
// chat type it keeps a summary cache with a TTL, a set of learned
// question/answer patterns, and per-user history. It also owns the trash bin
// for discarded uploads. All state is process-lifetime.
type ChatService struct {
	loader     storedTableLoader
	uploadsDir string
	cacheTTL   time.Duration

	mu       sync.Mutex
	cache    map[string]*chatCacheEntry
	patterns map[string][]*chatPattern
	history  map[string][]entity.ChatExchange
	trash    []entity.TrashItem
}

func NewChatService(loader storedTableLoader, uploadsDir string, cacheTTL time.Duration) *ChatService {
	return &ChatService{
		loader:     loader,
		uploadsDir: uploadsDir,
		cacheTTL:   cacheTTL,
		cache:      make(map[string]*chatCacheEntry),
		patterns:   make(map[string][]*chatPattern),
		history:    make(map[string][]entity.ChatExchange),
	}
}

// Reply answers a chat message. When the summary cache for the chat type is
// cold and the caller names a stored file, that file is loaded and summarized
// first; without a file the reply is built over an empty summary.
func (s *ChatService) Reply(userID, chatType, message, storedFile string) (*dto.ChatReply, error) {
	if !chatTypes[chatType] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChatType, chatType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.cache[chatType]
	if entry == nil && storedFile != "" {
		table, err := s.loader.StoredTable(storedFile)
		if err != nil {
			return nil, err
		}
		entry = &chatCacheEntry{
			summary: summarizeTable(table, chatType),
			updated: time.Now(),
		}
		s.cache[chatType] = entry
	}

	var summary dto.ChatSummary
	if entry != nil {
		summary = entry.summary
	}

	reply := s.respond(chatType, message, summary)

	s.history[userID] = append(s.history[userID], entity.ChatExchange{
		Timestamp:   time.Now(),
		ChatType:    chatType,
		UserMessage: message,
		Reply:       reply,
	})

	metrics.ChatMessages.WithLabelValues(chatType).Inc()

	return &dto.ChatReply{Reply: reply, Summary: &summary}, nil
}

// respond answers from a learned pattern when one matches closely enough,
// otherwise from the per-type template, learning the result. Caller holds the
// lock.
func (s *ChatService) respond(chatType, message string, summary dto.ChatSummary) string {
	words := wordSet(message)

	var best *chatPattern
	bestScore := 0.0
	for _, p := range s.patterns[chatType] {
		if score := jaccard(words, p.words); score > bestScore {
			bestScore = score
			best = p
		}
	}
	if best != nil && bestScore > chatPatternThreshold {
		best.frequency++
		return best.reply
	}

	reply := templateReply(chatType, summary)
	s.patterns[chatType] = append(s.patterns[chatType], &chatPattern{
		words:     words,
		reply:     reply,
		frequency: 1,
	})
	return reply
}

func templateReply(chatType string, summary dto.ChatSummary) string {
	switch {
	case chatType == "novos_clientes":
		return fmt.Sprintf("📊 Temos %d novos clientes.", len(summary.Records))
	case chatType == "queijo_reino":
		return fmt.Sprintf("🧀 Vendas: R$ %.2f", summary.SalesTotal)
	case strings.HasPrefix(chatType, "nao_cobertos"):
		return fmt.Sprintf("🚨 %d clientes não cobertos.", summary.TotalUncovered)
	}
	return fmt.Sprintf("📋 %d registros disponíveis para %s.", summary.TotalRows, chatType)
}

// summarizeTable digests a table for a chat type: row listings for client
// reports, sales aggregates for queijo_reino (first recognized value column,
// unparseable cells count as zero), uncovered totals for coverage reports.
func summarizeTable(table *entity.Table, chatType string) dto.ChatSummary {
	summary := dto.ChatSummary{
		TotalRows: len(table.Rows),
		Columns:   table.Columns,
	}

	switch {
	case chatType == "queijo_reino":
		for _, col := range salesColumns {
			if !hasColumn(table, col) {
				continue
			}
			var total, max float64
			for _, row := range table.Rows {
				value, ok := parseNumeric(row[col])
				if !ok {
					value = 0
				}
				total += value
				if value > max {
					max = value
				}
			}
			summary.SalesTotal = total
			summary.SalesMax = max
			if len(table.Rows) > 0 {
				summary.SalesMean = total / float64(len(table.Rows))
			}
			break
		}
	case strings.HasPrefix(chatType, "nao_cobertos"):
		summary.Records = table.Rows
		summary.TotalUncovered = len(table.Rows)
	default:
		summary.Records = table.Rows
	}
	return summary
}

// ClearCache drops the cached summary for a chat type so the next message
// reloads it.
func (s *ChatService) ClearCache(chatType string) error {
	if !chatTypes[chatType] {
		return fmt.Errorf("%w: %s", ErrUnknownChatType, chatType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, chatType)
	return nil
}

// History returns the user's exchanges, oldest first.
func (s *ChatService) History(userID string) []entity.ChatExchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.history[userID]
	out := make([]entity.ChatExchange, len(entries))
	copy(out, entries)
	return out
}

// Discard moves a stored upload into the trash bin. The file stays on disk
// until the trash is emptied.
func (s *ChatService) Discard(storedFile string) (entity.TrashItem, error) {
	safeName, err := safeFilename(storedFile)
	if err != nil {
		return entity.TrashItem{}, err
	}

	path := filepath.Join(s.uploadsDir, safeName)
	within, err := isWithinDir(path, s.uploadsDir)
	if err != nil || !within {
		return entity.TrashItem{}, ErrUnsafeFilename
	}
	if _, err := os.Stat(path); err != nil {
		return entity.TrashItem{}, ErrStoredFileMissing
	}

	item := entity.TrashItem{
		FileName:  safeName,
		Path:      path,
		DeletedAt: time.Now(),
	}

	s.mu.Lock()
	s.trash = append(s.trash, item)
	s.mu.Unlock()

	logrus.WithField("file", safeName).Info("Upload moved to trash")
	return item, nil
}

// Trash lists the discarded uploads.
func (s *ChatService) Trash() []entity.TrashItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.TrashItem, len(s.trash))
	copy(out, s.trash)
	return out
}

// EmptyTrash deletes every trashed file from disk and returns how many items
// were cleared.
func (s *ChatService) EmptyTrash() int {
	s.mu.Lock()
	items := s.trash
	s.trash = nil
	s.mu.Unlock()

	for _, item := range items {
		if err := os.Remove(item.Path); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("file", item.FileName).Warn("Failed to delete trashed file")
		}
	}
	return len(items)
}

// Janitor expires stale summary caches and empties the trash on each tick
// until the context is cancelled.
func (s *ChatService) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireStale()
			s.EmptyTrash()
		}
	}
}

func (s *ChatService) expireStale() {
	cutoff := time.Now().Add(-s.cacheTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for chatType, entry := range s.cache {
		if entry.updated.Before(cutoff) {
			delete(s.cache, chatType)
		}
	}
}

func wordSet(message string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(message)) {
		words[w] = struct{}{}
	}
	return words
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
