package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestWrapNotFound(t *testing.T) {
	if WrapNotFound(nil) != nil {
		t.Fatal("nil wrapped")
	}
	wrapped := fmt.Errorf("scan task: %w", pgx.ErrNoRows)
	if err := WrapNotFound(wrapped); err != ErrNotFound {
		t.Fatalf("no rows = %v", err)
	}
	if !IsNotFound(wrapped) || !IsNotFound(ErrNotFound) {
		t.Fatal("IsNotFound missed a no-rows error")
	}

	boom := errors.New("connection reset")
	err := WrapNotFound(boom)
	if !errors.Is(err, boom) || IsNotFound(err) || err.Error() != "db: connection reset" {
		t.Fatalf("other error = %v", err)
	}
}
