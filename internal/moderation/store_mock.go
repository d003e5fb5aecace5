package moderation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockContentStore is a function-field mock of ContentStore for tests.
type MockContentStore struct {
	GetContentHeadFunc  func(ctx context.Context, contentID string) (*ContentHead, error)
	ApplyModerationFunc func(ctx context.Context, contentID string, meta Meta) (bool, error)
	RestoreContentFunc  func(ctx context.Context, contentID string) error
}

func (m *MockContentStore) GetContentHead(ctx context.Context, contentID string) (*ContentHead, error) {
	if m.GetContentHeadFunc != nil {
		return m.GetContentHeadFunc(ctx, contentID)
	}
	return nil, nil
}

func (m *MockContentStore) ApplyModeration(ctx context.Context, contentID string, meta Meta) (bool, error) {
	if m.ApplyModerationFunc != nil {
		return m.ApplyModerationFunc(ctx, contentID, meta)
	}
	return true, nil
}

func (m *MockContentStore) RestoreContent(ctx context.Context, contentID string) error {
	if m.RestoreContentFunc != nil {
		return m.RestoreContentFunc(ctx, contentID)
	}
	return nil
}

// MemReportStore is an in-memory ReportStore that actually enforces the
// (content, reporter) uniqueness constraint. Service tests use it to exercise
// the real intake ordering without a database file.
type MemReportStore struct {
	mu         sync.Mutex
	reports    map[string]map[string]int64 // contentID -> reporterID -> tsMs
	logEntries []LogEntry

	// InsertReportErr, when set, is returned by every insert. Simulates a
	// transient store failure.
	InsertReportErr error

	// AppendLogErr, when set, is returned by every log append.
	AppendLogErr error
}

// NewMemReportStore returns an empty in-memory report store.
func NewMemReportStore() *MemReportStore {
	return &MemReportStore{reports: make(map[string]map[string]int64)}
}

func (m *MemReportStore) InsertReport(ctx context.Context, contentID, reporterID string, timestampMs int64) error {
	if m.InsertReportErr != nil {
		return m.InsertReportErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byReporter, ok := m.reports[contentID]
	if !ok {
		byReporter = make(map[string]int64)
		m.reports[contentID] = byReporter
	}
	if _, exists := byReporter[reporterID]; exists {
		return ErrDuplicateReport
	}
	byReporter[reporterID] = timestampMs
	return nil
}

func (m *MemReportStore) ListReportTimestamps(ctx context.Context, contentID string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var timestamps []int64
	for _, ts := range m.reports[contentID] {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return timestamps, nil
}

func (m *MemReportStore) AppendLogEntry(ctx context.Context, entry LogEntry) error {
	if m.AppendLogErr != nil {
		return m.AppendLogErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logEntries = append(m.logEntries, entry)
	return nil
}

func (m *MemReportStore) ListLogEntries(ctx context.Context, contentID string) ([]LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []LogEntry
	for i := len(m.logEntries) - 1; i >= 0; i-- {
		if m.logEntries[i].ContentID == contentID {
			entries = append(entries, m.logEntries[i])
		}
	}
	return entries, nil
}

func (m *MemReportStore) ListAuditLog(ctx context.Context, limit int) ([]LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []LogEntry
	for i := len(m.logEntries) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, m.logEntries[i])
	}
	return entries, nil
}

func (m *MemReportStore) CountLogEntriesSince(ctx context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, entry := range m.logEntries {
		if entry.Timestamp.After(since) {
			count++
		}
	}
	return count, nil
}

// LogEntries returns a copy of everything appended so far, oldest first.
func (m *MemReportStore) LogEntries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogEntry, len(m.logEntries))
	copy(out, m.logEntries)
	return out
}

// ReportCount returns the number of persisted reports for a confession.
func (m *MemReportStore) ReportCount(contentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports[contentID])
}
