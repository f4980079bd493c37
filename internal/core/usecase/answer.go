package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/core/ports"
)

// NotFoundAnswer is returned when no page of the textbook covers the
// question.
const NotFoundAnswer = "Não encontrei essa informação no livro de referência."

type AnswerUseCase struct {
	retriever ports.Retriever
	generator ports.AnswerGenerator
}

func NewAnswerUseCase(retriever ports.Retriever, generator ports.AnswerGenerator) *AnswerUseCase {
	return &AnswerUseCase{
		retriever: retriever,
		generator: generator,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	result, err := uc.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve pages: %w", err)
	}
	if !result.Found() || result.ContextText == "" {
		return &domain.Answer{
			Text:          NotFoundAnswer,
			Pages:         []int{},
			Scope:         result.Scope,
			CorpusVersion: result.CorpusVersion,
		}, nil
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, result.ContextText, result.Pages)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &domain.Answer{
		Text:          text,
		Pages:         result.Pages,
		Scope:         result.Scope,
		CorpusVersion: result.CorpusVersion,
	}, nil
}
