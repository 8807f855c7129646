package storage

import (
	"context"
	"errors"
)

// KnowledgeBase is a source of the ingredient knowledge-base document.
type KnowledgeBase interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestKnowledgeBase is a simple in-memory implementation for testing
type TestKnowledgeBase struct {
	data  []byte
	err   error
	loads int
}

func NewTestKnowledgeBase(data []byte) *TestKnowledgeBase {
	return &TestKnowledgeBase{data: data}
}

func NewTestKnowledgeBaseWithError() *TestKnowledgeBase {
	return &TestKnowledgeBase{err: errors.New("not found")}
}

func (t *TestKnowledgeBase) Load(ctx context.Context) ([]byte, error) {
	t.loads++
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

// Loads reports how many times Load was called.
func (t *TestKnowledgeBase) Loads() int {
	return t.loads
}
