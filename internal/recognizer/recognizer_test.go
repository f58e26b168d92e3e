package recognizer

import (
	"context"
	"strings"
	"testing"

	"github.com/chatledger/chatledger/internal/config"
)

func TestTextPromptEmbedsInput(t *testing.T) {
	p := textPrompt("午饭 麦当劳 32块")
	if !strings.Contains(p, "午饭 麦当劳 32块") {
		t.Errorf("prompt missing input text: %q", p)
	}
	if !strings.Contains(p, `"amount"`) {
		t.Errorf("prompt missing field schema: %q", p)
	}
}

func TestNewOpenAIBaseURL(t *testing.T) {
	// Constructor must not fail regardless of trailing slash or an
	// already-suffixed URL; the SDK itself is exercised at runtime.
	for _, base := range []string{
		"",
		"https://dashscope.aliyuncs.com/compatible-mode",
		"https://dashscope.aliyuncs.com/compatible-mode/",
		"https://dashscope.aliyuncs.com/compatible-mode/v1",
	} {
		if o := NewOpenAI("qwen-vl-plus", "key", base); o == nil {
			t.Errorf("NewOpenAI(%q) = nil", base)
		}
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.RecognizerConfig{Provider: "oracle"})
	if err == nil || !strings.Contains(err.Error(), "oracle") {
		t.Fatalf("err = %v, want unknown provider error", err)
	}
}
