package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPrinter(ctx context.Context, results chan search.Result, last chan string) (*bytes.Buffer, <-chan struct{}) {
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		printResults(ctx, &buf, results, last)
	}()
	return &buf, done
}

func TestPrintResults_ReturnsWhenFinalAlreadyShown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan search.Result)
	last := make(chan string, 1)
	buf, done := runPrinter(ctx, results, last)

	results <- search.Result{Query: "panadol", Products: []models.Product{{Code: "SP1", Name: "Panadol"}}}
	last <- "panadol "

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("printer kept waiting for a result that was already printed")
	}
	assert.Contains(t, buf.String(), "== panadol")
}

func TestPrintResults_WaitsForPendingFinal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan search.Result)
	last := make(chan string, 1)
	buf, done := runPrinter(ctx, results, last)

	last <- "berberin"
	select {
	case <-done:
		t.Fatal("printer returned before the final result")
	case <-time.After(50 * time.Millisecond):
	}

	results <- search.Result{Query: "berberin", Products: []models.Product{}}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("printer did not return after the final result")
	}
	require.Contains(t, buf.String(), "== berberin")
}

func TestPrintResults_EmptyFinal(t *testing.T) {
	results := make(chan search.Result)
	last := make(chan string, 1)
	_, done := runPrinter(context.Background(), results, last)

	last <- "  "
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("printer did not return on empty input")
	}
}
