package storage

import (
	"context"
	"os"
)

type FileKnowledgeBase struct {
	FilePath string
}

func NewFileKnowledgeBase(filePath string) *FileKnowledgeBase {
	return &FileKnowledgeBase{FilePath: filePath}
}

func (k *FileKnowledgeBase) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(k.FilePath)
}
