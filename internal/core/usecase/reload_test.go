package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/medref-rag/internal/core/corpus"
	"github.com/kirillkom/medref-rag/internal/core/domain"
)

type loaderFake struct {
	next *corpus.Corpus
	err  error
}

func (f *loaderFake) Load(context.Context) (*corpus.Corpus, error) {
	return f.next, f.err
}

type reloadObserverFake struct {
	statuses []string
}

func (f *reloadObserverFake) ObserveReload(status string, _ domain.CorpusInfo) {
	f.statuses = append(f.statuses, status)
}

func snapshot(t *testing.T, version string) *corpus.Corpus {
	t.Helper()
	c, err := corpus.New([]domain.Page{{Number: 1, Text: "a"}}, nil, nil, version, time.Now())
	if err != nil {
		t.Fatalf("corpus.New() error = %v", err)
	}
	return c
}

func TestReloadSwapsSnapshot(t *testing.T) {
	holder := corpus.NewHolder(snapshot(t, "v1"))
	observer := &reloadObserverFake{}
	uc := NewReloadUseCase(&loaderFake{next: snapshot(t, "v2")}, holder, observer, nil)

	info, err := uc.Reload(context.Background(), "test")
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if info.Version != "v2" {
		t.Fatalf("expected v2, got %s", info.Version)
	}
	current, err := uc.Info()
	if err != nil || current.Version != "v2" {
		t.Fatalf("Info() = %+v, %v", current, err)
	}
	if len(observer.statuses) != 1 || observer.statuses[0] != "success" {
		t.Fatalf("unexpected observations %v", observer.statuses)
	}
}

func TestReloadFailureKeepsOldSnapshot(t *testing.T) {
	holder := corpus.NewHolder(snapshot(t, "v1"))
	observer := &reloadObserverFake{}
	loadErr := domain.WrapError(domain.ErrArtifactUnreadable, "load pages", errors.New("truncated"))
	uc := NewReloadUseCase(&loaderFake{err: loadErr}, holder, observer, nil)

	if _, err := uc.Reload(context.Background(), "test"); !domain.IsKind(err, domain.ErrArtifactUnreadable) {
		t.Fatalf("expected artifact error, got %v", err)
	}
	current, err := holder.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if current.Version() != "v1" {
		t.Fatalf("expected old snapshot v1, got %s", current.Version())
	}
	if len(observer.statuses) != 1 || observer.statuses[0] != "failure" {
		t.Fatalf("unexpected observations %v", observer.statuses)
	}
}

func TestReloadInfoWithoutSnapshot(t *testing.T) {
	uc := NewReloadUseCase(&loaderFake{}, corpus.NewHolder(nil), nil, nil)

	if _, err := uc.Info(); !domain.IsKind(err, domain.ErrCorpusNotLoaded) {
		t.Fatalf("expected corpus not loaded, got %v", err)
	}
}
