package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alexschlessinger/rotorchat/messages"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const (
	lockTimeout   = 10 * time.Second
	lockRetry     = 100 * time.Millisecond
	defaultExpiry = 7 * 24 * time.Hour
)

// FileSession implements a file-based persistent session. The session
// file is held under an exclusive lock until Close.
type FileSession struct {
	ID       string                 `json:"id"`
	History  []messages.ChatMessage `json:"history"`
	Created  time.Time              `json:"created"`
	Updated  time.Time              `json:"updated"`
	Metadata *Metadata              `json:"metadata"`
	path     string
	lock     *flock.Flock
	mu       sync.RWMutex
}

// FileSessionStore keeps one JSON file per session in baseDir
type FileSessionStore struct {
	baseDir  string
	defaults *Metadata
}

// NewFileSessionStore creates a file-based session store. An empty baseDir
// means ~/.rotorchat/sessions.
func NewFileSessionStore(baseDir string, defaults *Metadata) (*FileSessionStore, error) {
	if defaults == nil {
		defaults = &Metadata{}
	}

	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".rotorchat", "sessions")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &FileSessionStore{
		baseDir:  baseDir,
		defaults: defaults,
	}, nil
}

func (s *FileSessionStore) pathFor(name string) string {
	return filepath.Join(s.baseDir, name+".json")
}

// Get loads or creates a session and locks its file
func (s *FileSessionStore) Get(name string) (Session, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid session name %q: %w", name, err)
	}

	sessionPath := s.pathFor(name)
	fileLock := flock.New(sessionPath)

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire lock within %s", lockTimeout)
	}

	session := &FileSession{path: sessionPath, lock: fileLock}
	if data, err := os.ReadFile(sessionPath); err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, session); err != nil {
			_ = fileLock.Unlock()
			return nil, fmt.Errorf("failed to read session %q: %w", name, err)
		}
		if session.Metadata == nil {
			session.Metadata = newMetadata(name, s.defaults)
			session.Metadata.Created = session.Created
		}
		session.Metadata.LastUsed = time.Now()
		session.Updated = time.Now()
	} else {
		now := time.Now()
		session.ID = name
		session.Created = now
		session.Updated = now
		session.Metadata = newMetadata(name, s.defaults)
		session.History = session.initialHistory()
	}

	if err := session.save(); err != nil {
		_ = fileLock.Unlock()
		return nil, err
	}
	return session, nil
}

// Delete removes a session file even if another process holds it
func (s *FileSessionStore) Delete(name string) {
	if err := os.Remove(s.pathFor(name)); err != nil && !os.IsNotExist(err) {
		zap.S().Debugw("session_delete_failed", "name", name, "error", err)
	}
}

// Expire removes unlocked sessions idle longer than the default TTL, or a
// week when no TTL is configured.
func (s *FileSessionStore) Expire() {
	expiry := s.defaults.TTL
	if expiry == 0 {
		expiry = defaultExpiry
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		filePath := filepath.Join(s.baseDir, entry.Name())
		fileLock := flock.New(filePath)
		locked, err := fileLock.TryLock()
		if err != nil || !locked {
			continue // in use
		}

		var session FileSession
		if data, err := os.ReadFile(filePath); err == nil && json.Unmarshal(data, &session) == nil {
			if time.Since(session.Updated) > expiry {
				zap.S().Debugw("session_expired", "name", session.ID)
				_ = os.Remove(filePath)
			}
		}

		_ = fileLock.Unlock()
	}
}

// List returns all session names
func (s *FileSessionStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	return names, nil
}

// Exists checks if a session file exists
func (s *FileSessionStore) Exists(name string) bool {
	_, err := os.Stat(s.pathFor(name))
	return err == nil
}

// GetLast returns the most recently modified session
func (s *FileSessionStore) GetLast() string {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return ""
	}

	var lastName string
	var lastTime time.Time

	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(lastTime) {
			lastTime = info.ModTime()
			lastName = strings.TrimSuffix(entry.Name(), ".json")
		}
	}

	return lastName
}

// GetAllMetadata reads metadata for all sessions without locking them
func (s *FileSessionStore) GetAllMetadata() map[string]*Metadata {
	result := make(map[string]*Metadata)

	names, err := s.List()
	if err != nil {
		return result
	}

	for _, name := range names {
		data, err := os.ReadFile(s.pathFor(name))
		if err != nil {
			continue
		}
		var session FileSession
		if err := json.Unmarshal(data, &session); err == nil && session.Metadata != nil {
			result[name] = session.Metadata
		}
	}

	return result
}

// BaseDir returns the directory holding the session files
func (s *FileSessionStore) BaseDir() string {
	return s.baseDir
}

func (s *FileSession) initialHistory() []messages.ChatMessage {
	history := []messages.ChatMessage{}
	if s.Metadata.SystemPrompt != "" {
		history = append(history, messages.ChatMessage{
			Role:    messages.MessageRoleSystem,
			Content: s.Metadata.SystemPrompt,
		})
	}
	return history
}

// GetHistory returns a copy of the session history
func (s *FileSession) GetHistory() []messages.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return CopyHistory(s.History)
}

// AddMessage adds a sanitized message and persists the session
func (s *FileSession) AddMessage(msg messages.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.History = append(s.History, sanitize(msg))
	s.History = TrimHistory(s.History, s.Metadata.MaxHistoryTokens)
	s.Updated = time.Now()
	if err := s.save(); err != nil {
		zap.S().Debugw("session_save_failed", "name", s.ID, "error", err)
	}
}

// Clear resets the history to the system prompt, if any
func (s *FileSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.History = s.initialHistory()
	s.Updated = time.Now()
	if err := s.save(); err != nil {
		zap.S().Debugw("session_save_failed", "name", s.ID, "error", err)
	}
}

// GetName returns the session name
func (s *FileSession) GetName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ID
}

// GetMetadata returns a copy of the session metadata
func (s *FileSession) GetMetadata() *Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	md := *s.Metadata
	return &md
}

// UpdateMetadata applies a partial update and persists it
func (s *FileSession) UpdateMetadata(update *Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Metadata = MergeMetadata(s.Metadata, update)
	s.Updated = time.Now()
	return s.save()
}

// GetLastUsed returns when the session was last modified
func (s *FileSession) GetLastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Updated
}

func (s *FileSession) save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Close releases the file lock
func (s *FileSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lock != nil {
		_ = s.lock.Unlock()
		s.lock = nil
	}
}
