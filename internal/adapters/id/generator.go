package id

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Generator struct{}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) generate(prefix string) string {
	id, err := gonanoid.New(21)
	if err != nil {
		return prefix + "_fallback"
	}
	return prefix + "_" + id
}

func (g *Generator) GenerateDocumentID() string {
	return g.generate("doc")
}

func (g *Generator) GenerateChunkID() string {
	return g.generate("ch")
}

func (g *Generator) GenerateRunID() string {
	return g.generate("run")
}
