package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

const maxRerankPassageRunes = 1200

func buildAnswerPrompt(question, contextText string, pages []int) string {
	return fmt.Sprintf(`Você responde perguntas usando apenas o trecho do livro de referência abaixo.
Regras:
- Use somente informações presentes no contexto; não invente doses, valores ou condutas.
- Cite as páginas usadas no formato [Página N].
- Se o contexto não responder à pergunta, diga que a informação não foi encontrada no livro.
- Responda em português.

Páginas disponíveis: %s

Pergunta:
%s

Contexto:
%s
`, joinInts(pages), question, contextText)
}

func buildOutlineSelectionPrompt(question string, compact []byte) string {
	return `Você recebe o sumário de um livro de medicina como uma lista JSON de entradas
[id, categoria, tópico, subtópico, número de páginas].
Escolha as entradas cujo conteúdo provavelmente responde à pergunta.
Retorne JSON estrito no formato {"ids": [inteiros]} sem markdown e sem outras chaves.
Retorne {"ids": []} se nenhuma entrada servir.

Pergunta:
` + question + `

Sumário:
` + string(compact)
}

func buildRerankPrompt(question string, passages []domain.Page) string {
	var b strings.Builder
	for _, p := range passages {
		text := []rune(strings.TrimSpace(p.Text))
		if len(text) > maxRerankPassageRunes {
			text = text[:maxRerankPassageRunes]
		}
		fmt.Fprintf(&b, "[Página %d]\n%s\n\n", p.Number, string(text))
	}

	return `Ordene as páginas abaixo pela relevância para responder à pergunta.
Retorne JSON estrito no formato {"pages": [números de página]} com as páginas mais relevantes primeiro.
Omita páginas irrelevantes. Sem markdown, sem outras chaves.

Pergunta:
` + question + `

Páginas:
` + b.String()
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ", ")
}
