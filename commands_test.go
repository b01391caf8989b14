package main

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/pouch/internal/store"
)

// runCLI executes the root command with a clean environment for the given driver.
func runCLI(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "disabled")
	t.Setenv("PORT", "6868")
	t.Setenv("PUZZLE_TIMEZONE", "Europe/Madrid")
	t.Setenv("ITEMS_FILE", "")
	t.Setenv("DAILY_SEED_SALT", "")
	for k, v := range env {
		t.Setenv(k, v)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var memoryEnv = map[string]string{"STORE_DRIVER": "memory"}

func TestShowCommand(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr string
		want    string
	}{
		{"bad date", "2025-13-40", "invalid date", ""},
		{"not a date", "tomorrow", "invalid date", ""},
		{"explicit date", "2025-03-10", "", "Solution 2025-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, memoryEnv, "show", "--date", tt.date)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				if out != "" {
					t.Fatalf("printed output before failing: %q", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("show: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("output = %q, want containing %q", out, tt.want)
			}
		})
	}
}

func TestSeedCommand(t *testing.T) {
	out, err := runCLI(t, memoryEnv, "seed")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "seeded 10 items") {
		t.Fatalf("output = %q", out)
	}
}

func TestBackfillCommand(t *testing.T) {
	t.Run("memory store has nothing to fix", func(t *testing.T) {
		out, err := runCLI(t, memoryEnv, "backfill")
		if err != nil {
			t.Fatalf("backfill: %v", err)
		}
		if !strings.Contains(out, "Backfilled: 0") {
			t.Fatalf("output = %q", out)
		}
	})

	t.Run("sqlite legacy rows", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "pouch.db")
		st, err := store.OpenSQLite(ctx, path)
		if err != nil {
			t.Fatal(err)
		}
		_ = st.Close()

		db, err := sql.Open("sqlite3", path)
		if err != nil {
			t.Fatal(err)
		}
		now := time.Now().UTC().Format(time.RFC3339Nano)
		for _, date := range []string{"2024-12-30", "2024-12-31"} {
			_, err := db.ExecContext(ctx, `
				INSERT INTO solution_grids (id, date, main_cells, cells, created_at)
				VALUES (?, ?, ?, NULL, ?)`,
				"legacy-"+date, date, `["grizzly",null,null,null,null,null,null,null,null]`, now)
			if err != nil {
				t.Fatal(err)
			}
		}
		_ = db.Close()

		env := map[string]string{"STORE_DRIVER": "sqlite", "DATABASE_PATH": path}
		out, err := runCLI(t, env, "backfill")
		if err != nil {
			t.Fatalf("backfill: %v", err)
		}
		if !strings.Contains(out, "Backfilled: 2") {
			t.Fatalf("output = %q", out)
		}

		out, err = runCLI(t, env, "backfill")
		if err != nil {
			t.Fatalf("second backfill: %v", err)
		}
		if !strings.Contains(out, "Backfilled: 0") {
			t.Fatalf("second pass output = %q", out)
		}
	})
}
