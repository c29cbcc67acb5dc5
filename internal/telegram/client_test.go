package telegram

import (
	"strings"
	"testing"
	"time"
)

func TestChunkMessage_ShortTextSingleChunk(t *testing.T) {
	chunks := chunkMessage("hello\nworld\n", 4096)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != "hello\nworld\n" {
		t.Errorf("got %q", chunks[0])
	}
}

func TestChunkMessage_SplitsOnLineBoundaries(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, strings.Repeat("x", 10))
	}
	text := strings.Join(lines, "\n") + "\n"

	chunks := chunkMessage(text, 50)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want multiple", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Errorf("chunk %d is %d bytes, exceeds limit", i, len(chunk))
		}
		if !strings.HasSuffix(chunk, "\n") {
			t.Errorf("chunk %d does not end at a line boundary: %q", i, chunk)
		}
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Error("rejoined chunks do not reproduce the original text")
	}
}

func TestChunkMessage_HardSplitsOversizedLine(t *testing.T) {
	text := "short\n" + strings.Repeat("y", 120) + "\nend\n"
	chunks := chunkMessage(text, 50)

	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Errorf("chunk %d is %d bytes, exceeds limit", i, len(chunk))
		}
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Errorf("rejoined chunks do not reproduce the original text:\n%q", got)
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// The bot token validation happens first (network call), so use a clearly
	// invalid format to exercise the chat ID parsing error path.
	_, err := NewClient("", "not-a-number", 3, time.Second)
	if err == nil {
		t.Error("Expected error for invalid chat ID, got nil")
	}
}
