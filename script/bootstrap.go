package script

import (
	"log"
	"os"
	"sync"
)

var bootstrapOnce sync.Once

// Bootstrap performs the scripting platform's one-time, process-wide
// initialization. Design Notes call this out explicitly: "the scripting
// platform requires one-time process-wide initialization (platform
// bootstrap, flag setup)". GoRuntime needs none of this (it dispatches to
// already-linked Go closures); for LLMRuntime, Bootstrap validates that at
// least one provider credential is configured in the environment, since an
// LLMRuntime built without one would fail every call at evaluation time
// instead of at startup.
//
// Bootstrap is idempotent and safe to call from multiple goroutines; only
// the first call's work executes. It never exits the process — a worker
// that only ever deploys GoRuntime-backed operators has no need for a
// provider credential, so the check only logs.
func Bootstrap() {
	bootstrapOnce.Do(func() {
		if os.Getenv("ANTHROPIC_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			log.Println("script: no LLM provider credential configured (ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY); LLMRuntime is unavailable")
		}
	})
}
