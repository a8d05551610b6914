package sessions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexschlessinger/rotorchat/messages"
)

// testStores returns both store implementations for testing
func testStores(t *testing.T) map[string]SessionStore {
	defaults := &Metadata{
		MaxHistoryTokens: 70, // ~10 short messages
		SystemPrompt:     "test system prompt",
	}

	fileStore, err := NewFileSessionStore(t.TempDir(), defaults)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	return map[string]SessionStore{
		"SyncMap": NewSyncMapSessionStore(defaults),
		"File":    fileStore,
	}
}

// TestAddMessage verifies messages are added to history
func TestAddMessage(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("test")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}
			defer session.Close()

			session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "Hello"})

			history := session.GetHistory()
			if len(history) != 2 {
				t.Fatalf("Expected 2 messages, got %d", len(history))
			}
			if history[1].Content != "Hello" {
				t.Errorf("Expected 'Hello', got '%s'", history[1].Content)
			}
		})
	}
}

// TestAssistantMessagesAreSanitized verifies reasoning never reaches the history
func TestAssistantMessagesAreSanitized(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("sanitize")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}
			defer session.Close()

			session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "Why <think> tags?"})
			session.AddMessage(messages.ChatMessage{
				Role:      messages.MessageRoleAssistant,
				Content:   "<think>the user asks about tags</think>Check the chip detector.",
				Reasoning: "provider reasoning",
			})

			history := session.GetHistory()
			last := history[len(history)-1]
			if last.Content != "Check the chip detector." {
				t.Errorf("assistant content = %q", last.Content)
			}
			if last.Reasoning != "" {
				t.Errorf("reasoning kept: %q", last.Reasoning)
			}
			// User text is stored as typed
			if history[1].Content != "Why <think> tags?" {
				t.Errorf("user content = %q", history[1].Content)
			}
		})
	}
}

// TestClearWithSystemPrompt verifies Clear() resets to system prompt
func TestClearWithSystemPrompt(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("test")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}
			defer session.Close()

			session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "msg1"})
			session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleAssistant, Content: "msg2"})
			session.Clear()

			history := session.GetHistory()
			if len(history) != 1 {
				t.Fatalf("Expected 1 message after clear, got %d", len(history))
			}
			if history[0].Role != messages.MessageRoleSystem || history[0].Content != "test system prompt" {
				t.Errorf("Expected system prompt, got %+v", history[0])
			}
		})
	}
}

// TestDelete verifies sessions can be deleted and recreated empty
func TestDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("doomed")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}
			session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "msg"})
			session.Close()

			if !store.Exists("doomed") {
				t.Fatal("session should exist")
			}
			store.Delete("doomed")
			if store.Exists("doomed") {
				t.Error("session should be gone")
			}

			fresh, err := store.Get("doomed")
			if err != nil {
				t.Fatalf("Failed to recreate session: %v", err)
			}
			defer fresh.Close()
			if len(fresh.GetHistory()) != 1 {
				t.Errorf("recreated session should only hold the system prompt")
			}
		})
	}
}

// TestTrimKeepsWithinTokenLimit verifies the history stays bounded
func TestTrimKeepsWithinTokenLimit(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("bounded")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}
			defer session.Close()

			for i := range 30 {
				session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: fmt.Sprintf("question %02d", i)})
				session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleAssistant, Content: fmt.Sprintf("answer %02d", i)})
			}

			history := session.GetHistory()
			if history[0].Role != messages.MessageRoleSystem {
				t.Error("System prompt should be preserved")
			}
			if history[1].Role != messages.MessageRoleUser {
				t.Errorf("kept conversation starts with %s", history[1].Role)
			}

			total := 0
			for _, m := range history[1:] {
				total += EstimateTokens(m)
			}
			if total > 70 {
				t.Errorf("history holds ~%d tokens, limit is 70", total)
			}
			if got := history[len(history)-1].Content; got != "answer 29" {
				t.Errorf("newest message = %q", got)
			}
		})
	}
}

// TestOversizedQuestionKept verifies a question larger than the limit still
// reaches the history
func TestOversizedQuestionKept(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("long-question")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}
			defer session.Close()

			session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "short one"})
			session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleAssistant, Content: "short answer"})

			question := strings.Repeat("Logbook entry: torque split observed. ", 20)
			session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: question})

			history := session.GetHistory()
			if len(history) != 2 {
				t.Fatalf("Expected system prompt and question, got %d messages", len(history))
			}
			if history[1].Content != question {
				t.Errorf("newest question was trimmed away")
			}
		})
	}
}

// TestConcurrentAddMessage verifies concurrent writers keep the history consistent
func TestConcurrentAddMessage(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := store.Get("concurrent")
			if err != nil {
				t.Fatalf("Failed to get session: %v", err)
			}
			defer session.Close()

			var wg sync.WaitGroup
			for g := range 20 {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for m := range 10 {
						session.AddMessage(messages.ChatMessage{
							Role:    messages.MessageRoleUser,
							Content: fmt.Sprintf("g%d-m%d", id, m),
						})
					}
				}(g)
			}
			wg.Wait()

			history := session.GetHistory()
			if len(history) < 2 {
				t.Errorf("Expected at least 2 messages, got %d", len(history))
			}
			if history[0].Role != messages.MessageRoleSystem {
				t.Error("System prompt should still be first")
			}
		})
	}
}

// TestFileSessionPersists verifies history and metadata survive a reopen
func TestFileSessionPersists(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSessionStore(dir, &Metadata{SystemPrompt: "sys"})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	session, err := store.Get("hangar")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "N2 droop"})
	session.AddMessage(messages.ChatMessage{Role: messages.MessageRoleAssistant, Content: "Check the FCU."})
	if err := session.UpdateMetadata(&Metadata{Model: "fireworks/gpt-oss-120b", MaxTokens: 8192}); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	session.Close()

	raw, err := os.ReadFile(filepath.Join(dir, "hangar.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "reasoning") {
		t.Errorf("session file mentions reasoning: %s", raw)
	}

	reopened, err := store.Get("hangar")
	if err != nil {
		t.Fatalf("Failed to reopen session: %v", err)
	}
	defer reopened.Close()

	if got := len(reopened.GetHistory()); got != 3 {
		t.Errorf("Expected 3 messages after reopen, got %d", got)
	}

	if err := reopened.UpdateMetadata(&Metadata{Model: "anthropic/claude-sonnet-4-20250514"}); err != nil {
		t.Fatal(err)
	}
	md := store.GetAllMetadata()["hangar"]
	if md == nil {
		t.Fatal("metadata missing")
	}
	if md.MaxTokens != 8192 {
		t.Errorf("MaxTokens was not preserved, got %d", md.MaxTokens)
	}
	if md.Model != "anthropic/claude-sonnet-4-20250514" {
		t.Errorf("Model was not updated, got %s", md.Model)
	}
	if md.SystemPrompt != "sys" {
		t.Errorf("SystemPrompt = %q", md.SystemPrompt)
	}
}

// TestFileSessionInvalidName verifies unsafe names are rejected
func TestFileSessionInvalidName(t *testing.T) {
	store, err := NewFileSessionStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "../etc", "a/b", ".hidden", " padded "} {
		if _, err := store.Get(name); err == nil {
			t.Errorf("Get(%q) should fail", name)
		}
	}
}

// TestFileStoreGetLast verifies the most recently written session is reported
func TestFileStoreGetLast(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSessionStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"old", "new"} {
		s, err := store.Get(name)
		if err != nil {
			t.Fatal(err)
		}
		s.Close()
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.json"), past, past); err != nil {
		t.Fatal(err)
	}

	if got := store.GetLast(); got != "new" {
		t.Errorf("GetLast() = %q", got)
	}
	names, err := store.List()
	if err != nil || len(names) != 2 {
		t.Errorf("List() = %v, %v", names, err)
	}
}

// TestSyncMapExpire verifies idle sessions are dropped
func TestSyncMapExpire(t *testing.T) {
	store := NewSyncMapSessionStore(&Metadata{SystemPrompt: "sys"})

	stale, _ := store.Get("stale")
	stale.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "old"})
	if err := stale.UpdateMetadata(&Metadata{TTL: time.Minute}); err != nil {
		t.Fatal(err)
	}
	ls := stale.(*LocalSession)
	ls.mu.Lock()
	ls.last = time.Now().Add(-time.Hour)
	ls.mu.Unlock()

	fresh, _ := store.Get("fresh")
	fresh.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "new"})

	store.Expire()

	if store.Exists("stale") {
		t.Error("stale session should have expired")
	}
	if !store.Exists("fresh") {
		t.Error("session without TTL should be kept")
	}
	if got := store.GetLast(); got != "fresh" {
		t.Errorf("GetLast() = %q", got)
	}
}
