package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Test Setup ---

const testConfig = `
storage_folder: .taskquest
deduct_on_uncheck: true
scoring:
  provider: heuristic
  base_value: 10
  tag_multipliers:
    "#easy": 0.5
    "#hard": 2.0
rate_limit:
  enabled: false
achievements:
  - id: first-steps
    name: First Steps
    counter: tasksCompleted
    threshold: 2
    effects:
      - kind: unlock_title
        title: Finisher
`

func setupTests(t *testing.T) (vault string, configFile string) {
	t.Helper()
	vault = t.TempDir()

	notes := map[string]string{
		"draft.md":             "# Draft\n- [x] Write draft #easy\n- [ ] Review draft\n",
		"projects/site.md":     "- [x] Fix header #hard\n  - [X] Nested subtask\n",
		".obsidian/config.md":  "- [x] Hidden folders are ignored\n",
		"attachments/note.txt": "- [x] Not a note\n",
	}
	for rel, content := range notes {
		full := filepath.Join(vault, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write note: %v", err)
		}
	}

	configFile = filepath.Join(t.TempDir(), "taskquest.yml")
	if err := os.WriteFile(configFile, []byte(testConfig), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	// Keep command logs out of test output.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return vault, configFile
}

// executeCommandText captures plain text output from a command.
func executeCommandText(t *testing.T, args ...string) string {
	t.Helper()
	out, err := executeCommand(args...)
	if err != nil {
		t.Fatalf("command execution failed: %v\n%s", err, out)
	}
	return out
}

func executeCommand(args ...string) (string, error) {
	b := new(bytes.Buffer)

	// Set the command's output to our buffer
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs(args)

	// Reset flags to default values before each run
	rootCmd.PersistentFlags().Set("config", "taskquest.yml")
	rootCmd.PersistentFlags().Set("vault", "")
	statsCmd.Flags().Set("copy", "false")
	tasksCmd.Flags().Set("tag", "")
	tasksCmd.Flags().Set("file", "")
	tasksDeleteCmd.Flags().Set("file", "")
	tasksDeleteCmd.Flags().Set("task", "")

	err := rootCmd.Execute()
	return b.String(), err
}

func readPlayer(t *testing.T, vault string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(vault, ".taskquest", "player.json"))
	if err != nil {
		t.Fatalf("Failed to read player file: %v", err)
	}
	var totals map[string]any
	if err := json.Unmarshal(data, &totals); err != nil {
		t.Fatalf("Failed to parse player file: %v", err)
	}
	return totals
}

// --- Test Functions ---

func TestScanCommand(t *testing.T) {
	vault, cfg := setupTests(t)

	t.Run("awards points for completed tasks", func(t *testing.T) {
		output := executeCommandText(t, "scan", "--config", cfg, "--vault", vault)
		if !strings.Contains(output, "Scanned 2 notes: 3 tasks completed, 0 unchecked (-0 points).") {
			t.Errorf("Unexpected scan summary:\n%s", output)
		}
		// 5 (#easy) + 20 (#hard) + 10 (untagged)
		if !strings.Contains(output, "Total points: 35") {
			t.Errorf("Expected 35 total points:\n%s", output)
		}
		if _, err := os.Stat(filepath.Join(vault, ".taskquest", "task_storage.json")); err != nil {
			t.Errorf("Expected task storage file: %v", err)
		}
		totals := readPlayer(t, vault)
		if titles, _ := totals["titles"].([]any); len(titles) != 1 || titles[0] != "Finisher" {
			t.Errorf("Expected the Finisher title, got %v", totals["titles"])
		}
	})

	t.Run("second scan is a no-op", func(t *testing.T) {
		output := executeCommandText(t, "scan", "--config", cfg, "--vault", vault)
		if !strings.Contains(output, "0 tasks completed") || !strings.Contains(output, "Total points: 35") {
			t.Errorf("Rescan changed state:\n%s", output)
		}
	})

	t.Run("unchecking deducts the stored points", func(t *testing.T) {
		note := filepath.Join(vault, "projects", "site.md")
		if err := os.WriteFile(note, []byte("- [ ] Fix header #hard\n  - [X] Nested subtask\n"), 0644); err != nil {
			t.Fatalf("Failed to rewrite note: %v", err)
		}
		output := executeCommandText(t, "scan", "--config", cfg, "--vault", vault)
		if !strings.Contains(output, "1 unchecked (-20 points)") || !strings.Contains(output, "Total points: 15") {
			t.Errorf("Unexpected uncheck summary:\n%s", output)
		}
	})
}

func TestTasksCommand(t *testing.T) {
	vault, cfg := setupTests(t)
	executeCommandText(t, "scan", "--config", cfg, "--vault", vault)

	t.Run("lists every record", func(t *testing.T) {
		output := executeCommandText(t, "tasks", "--config", cfg, "--vault", vault)
		for _, want := range []string{
			"Completed tasks",
			"    • draft.md",
			"        ◦ Write draft #easy (+5,",
			"    • projects/site.md",
			"        ◦ Fix header #hard (+20,",
			"    • #hard: 20",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Report missing %q:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Review draft") {
			t.Error("Open tasks should not be listed")
		}
	})

	t.Run("filters by tag", func(t *testing.T) {
		output := executeCommandText(t, "tasks", "--config", cfg, "--vault", vault, "--tag", "easy")
		if !strings.Contains(output, "Write draft #easy") || strings.Contains(output, "Fix header") {
			t.Errorf("Tag filter not applied:\n%s", output)
		}
	})

	t.Run("deletes one record", func(t *testing.T) {
		output := executeCommandText(t, "tasks", "delete", "--config", cfg, "--vault", vault, "--file", "draft.md", "--task", "Write draft #easy")
		if !strings.Contains(output, `Deleted "Write draft #easy" from draft.md.`) {
			t.Errorf("Unexpected delete output:\n%s", output)
		}
		output = executeCommandText(t, "tasks", "--config", cfg, "--vault", vault)
		if strings.Contains(output, "Write draft") {
			t.Errorf("Record was not deleted:\n%s", output)
		}
	})

	t.Run("delete of a missing record fails", func(t *testing.T) {
		if _, err := executeCommand("tasks", "delete", "--config", cfg, "--vault", vault, "--file", "draft.md", "--task", "nope"); err == nil {
			t.Error("Expected an error for a missing record")
		}
	})

	t.Run("clears all records", func(t *testing.T) {
		output := executeCommandText(t, "tasks", "clear", "--config", cfg, "--vault", vault)
		if !strings.Contains(output, "Cleared 2 task records.") {
			t.Errorf("Unexpected clear output:\n%s", output)
		}
		output = executeCommandText(t, "tasks", "--config", cfg, "--vault", vault)
		if !strings.Contains(output, "No processed tasks yet.") {
			t.Errorf("Expected an empty report:\n%s", output)
		}
	})
}

func TestStatsCommand(t *testing.T) {
	vault, cfg := setupTests(t)
	executeCommandText(t, "scan", "--config", cfg, "--vault", vault)

	output := executeCommandText(t, "stats", "--config", cfg, "--vault", vault)
	for _, want := range []string{"TaskQuest", "Points", "35", "Finisher"} {
		if !strings.Contains(output, want) {
			t.Errorf("Stats card missing %q:\n%s", want, output)
		}
	}
}

func TestScoreCommand(t *testing.T) {
	_, cfg := setupTests(t)

	output := executeCommandText(t, "score", "--config", cfg, "Refactor the parser #hard")
	if output != "20 points\n" {
		t.Errorf("Expected %q, got %q", "20 points\n", output)
	}
}

func TestInvalidConfig(t *testing.T) {
	vault, _ := setupTests(t)
	bad := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(bad, []byte("rate_limit:\n  enabled: true\n  requests_per_minute: 0\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := executeCommand("scan", "--config", bad, "--vault", vault); err == nil {
		t.Error("Expected an error for an invalid config")
	}
}
