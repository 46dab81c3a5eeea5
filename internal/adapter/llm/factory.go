package llm

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// EnvTribunalMode is the environment variable name for mode selection.
	EnvTribunalMode = "TRIBUNAL_MODE"
	// ModeMock indicates the offline mock client should be used.
	ModeMock = "MOCK"
)

// NewCompletionClient creates a completion client based on TRIBUNAL_MODE.
// If TRIBUNAL_MODE=MOCK, returns a MockClient; otherwise a real Client.
func NewCompletionClient(baseURL, apiKey, model string, timeout time.Duration, log *logrus.Logger) CompletionClient {
	if os.Getenv(EnvTribunalMode) == ModeMock {
		log.Info("TRIBUNAL_MODE=MOCK detected, using mock completion client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, model, timeout)
}
