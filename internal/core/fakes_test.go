package core

import (
	"context"
	"errors"
	"sync"

	"lyra-backend-go/internal/models"
)

type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	calls    int
	requests []GenerationRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req GenerationRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.requests = append(g.requests, req)
	return g.text, g.err
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return ""
	}
	return g.requests[len(g.requests)-1].Prompt
}

type failingHistory struct{}

func (failingHistory) Create(context.Context, *models.ToolHistory) (*models.ToolHistory, error) {
	return nil, errors.New("disk full")
}

func (failingHistory) ListByUser(context.Context, int64, models.ToolType) ([]*models.ToolHistory, error) {
	return nil, errors.New("disk full")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Events() []ActivityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ActivityEvent(nil), p.events...)
}
