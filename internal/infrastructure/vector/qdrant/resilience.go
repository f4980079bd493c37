package qdrant

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/infrastructure/resilience"
)

type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("qdrant %s status: %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("qdrant %s status: %d: %s", e.Operation, e.StatusCode, e.Body)
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return resilience.ClassifyNetwork(err)
	}
	switch statusErr.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{}
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyQdrantError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
