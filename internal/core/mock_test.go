package core

import (
	"context"
	"errors"

	"github.com/agenthands/daybrief/internal/core/insight"
	"github.com/agenthands/daybrief/internal/core/model"
)

type MockSummarizer struct {
	Response string
	Err      error
	LastReq  DigestRequest
	Calls    int
}

func (m *MockSummarizer) Summarize(_ context.Context, req DigestRequest) (string, error) {
	m.Calls++
	m.LastReq = req
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type MemLedger struct {
	Entities map[string]*model.Entity
	Saved    bool
	LoadErr  error
}

func (m *MemLedger) Load(context.Context) (map[string]*model.Entity, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Entities == nil {
		m.Entities = make(map[string]*model.Entity)
	}
	return m.Entities, nil
}

func (m *MemLedger) Save(_ context.Context, ledger map[string]*model.Entity) error {
	m.Entities = ledger
	m.Saved = true
	return nil
}

type MemHistory struct {
	History insight.History
	Saved   bool
}

func (m *MemHistory) Load(context.Context) (insight.History, error) {
	return m.History, nil
}

func (m *MemHistory) Save(_ context.Context, h insight.History) error {
	m.History = h
	m.Saved = true
	return nil
}

type MockLock struct {
	Busy     bool
	Attempts int
}

func (m *MockLock) Acquire() (func(), error) {
	m.Attempts++
	if m.Busy {
		return nil, errors.New("lock held")
	}
	return func() {}, nil
}
