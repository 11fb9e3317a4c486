package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/llm"
)

type scriptedReply struct {
	text string
	err  error
}

// scriptedClient replays queued replies per operation and records every request.
type scriptedClient struct {
	mu       sync.Mutex
	byOp     map[string][]scriptedReply
	requests []llm.Request
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{byOp: map[string][]scriptedReply{}}
}

func (c *scriptedClient) on(op string, replies ...scriptedReply) *scriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byOp[op] = append(c.byOp[op], replies...)
	return c
}

func (c *scriptedClient) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	queue := c.byOp[req.Operation]
	if len(queue) == 0 {
		return llm.Response{}, fmt.Errorf("no scripted reply for %s", req.Operation)
	}
	reply := queue[0]
	c.byOp[req.Operation] = queue[1:]
	if reply.err != nil {
		return llm.Response{}, reply.err
	}
	return llm.Response{Text: reply.text}, nil
}

func (c *scriptedClient) calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.requests {
		if r.Operation == op {
			n++
		}
	}
	return n
}

func reply(text string) scriptedReply { return scriptedReply{text: text} }

func failure(msg string) scriptedReply { return scriptedReply{err: errors.New(msg)} }

const answersJSON = `{"what":"w","context":"c","outcome":"o","reaction":"r"}`

func scenarioJSON(text string) string {
	return fmt.Sprintf(`{"output_scenario": %q}`, text)
}

// personaClient answers generate calls per persona, keyed by the persona label
// found in the system prompt.
func personaClient(texts map[PersonaID]string, fail map[PersonaID]bool) llm.Client {
	catalog := DefaultPersonaCatalog()
	return llm.ClientFunc(func(_ context.Context, req llm.Request) (llm.Response, error) {
		for _, p := range catalog.All() {
			if len(req.System) > 0 && req.System[0] == p.Template {
				if fail[p.ID] {
					return llm.Response{}, errors.New("model timeout")
				}
				return llm.Response{Text: scenarioJSON(texts[p.ID])}, nil
			}
		}
		return llm.Response{}, errors.New("unknown persona prompt")
	})
}

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

// identityPerm assigns personas in catalog order.
func identityPerm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func newTestMachine(client llm.Client, parallel bool) *Machine {
	settings := CompletionSettings{Model: "test-model", MaxTokens: 256, Temperature: 0.3}
	extract := settings
	extract.Temperature = 0.1
	catalog := DefaultPersonaCatalog()
	return NewMachine(MachineDeps{
		Collector: NewCollector(client, settings),
		Extractor: NewExtractor(client, extract, false),
		Assigner:  NewPersonaAssigner(catalog, identityPerm),
		Generator: NewGenerator(client, catalog, settings, parallel),
		Adapter:   NewAdapter(client, settings),
		Now:       fixedClock(),
	})
}

// reviewSession returns a session in review holding variants A, B and C.
func reviewSession() *Session {
	s := NewSession("p-1", time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))
	s.Consented = true
	s.Phase = PhaseReview
	s.Transcript = append(s.Transcript, Turn{Role: RoleUser, Text: "hi"}, Turn{Role: RoleAssistant, Text: Sentinel})
	s.Answers = &AnswerSet{What: "w", Context: "c", Outcome: "o", Reaction: "r"}
	s.Assignment = &PersonaAssignment{PersonaFormal, PersonaYoungSibling, PersonaFriend}
	for i, text := range []string{"A", "B", "C"} {
		slot := Slot(i + 1)
		s.Variants[i] = &ScenarioVariant{Slot: slot, Persona: s.Assignment.For(slot), Text: text}
	}
	return s
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func clientCounter(inner llm.Client, mu *sync.Mutex, calls *int) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, req llm.Request) (llm.Response, error) {
		mu.Lock()
		*calls++
		mu.Unlock()
		return inner.Complete(ctx, req)
	})
}
