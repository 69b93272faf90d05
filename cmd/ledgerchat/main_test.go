package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xcro3dile/ledgerchat-go/internal/bootstrap"
	"github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/config"
	"github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/logger"
)

const testCSV = `Company,Fiscal Year,Total Revenue,Net Income
Acme,2022,100000,20000
Acme,2023,150000,25000
Globex,2023,120000,18000
`

// setupEnv points config at a temp ledger and log file.
func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "balance_long.csv")
	if err := os.WriteFile(csvPath, []byte(testCSV), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	t.Setenv("LEDGER_CSV_PATH", csvPath)
	t.Setenv("LOG_FILE_PATH", filepath.Join(dir, "ledgerchat.log"))
	t.Setenv("LEDGER_BACKEND", "memory")
	t.Setenv("LEDGER_DATA_DIR", filepath.Join(dir, "data"))
}

func TestRunAsk(t *testing.T) {
	setupEnv(t)
	messageFlag = "what was acme revenue in 2023"
	defer func() { messageFlag = "" }()

	var out bytes.Buffer
	err := runAsk(context.Background(), Options{Stdout: &out})

	if err != nil {
		t.Fatalf("runAsk error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "Acme's Total Revenue in 2023 was $150,000." {
		t.Errorf("unexpected answer %q", got)
	}
}

func TestRunAsk_EmptyMessage(t *testing.T) {
	setupEnv(t)
	messageFlag = "  "
	defer func() { messageFlag = "" }()

	if err := runAsk(context.Background(), Options{}); err == nil {
		t.Error("expected error for empty message")
	}
}

func TestRunChat_REPL(t *testing.T) {
	setupEnv(t)
	input := strings.Join([]string{
		"acme net income 2022",
		"",
		"in 2023",
		"/reset",
		"in 2023",
		"exit",
		"acme revenue 2022",
	}, "\n")

	var out, errOut bytes.Buffer
	err := runChat(context.Background(), Options{
		Stdin:  strings.NewReader(input),
		Stdout: &out,
		Stderr: &errOut,
	})

	if err != nil {
		t.Fatalf("runChat error: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Acme's Net Income in 2022 was $20,000.",
		"Acme's Net Income in 2023 was $25,000.",
		"Context cleared.",
		"Sorry, I couldn’t understand.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "$100,000") {
		t.Error("input after exit should not be answered")
	}
	if errOut.Len() != 0 {
		t.Errorf("unexpected stderr: %s", errOut.String())
	}
}

func TestRunChat_EOF(t *testing.T) {
	setupEnv(t)
	var out bytes.Buffer

	err := runChat(context.Background(), Options{Stdin: strings.NewReader(""), Stdout: &out})

	if err != nil {
		t.Errorf("EOF should end the REPL cleanly: %v", err)
	}
}

func TestRunCompanies(t *testing.T) {
	setupEnv(t)
	var out bytes.Buffer

	if err := runCompanies(context.Background(), Options{Stdout: &out}); err != nil {
		t.Fatalf("runCompanies error: %v", err)
	}

	want := "Acme\t2022, 2023\nGlobex\t2023\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestOpenApp_FactoryError(t *testing.T) {
	setupEnv(t)
	failing := func(context.Context, *config.Config, *logger.ZapLogger) (*bootstrap.App, error) {
		return nil, errors.New("boom")
	}

	err := runCompanies(context.Background(), Options{AppFactory: failing})

	if err == nil || err.Error() != "boom" {
		t.Errorf("expected factory error, got %v", err)
	}
}

func TestOpenApp_BadConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("LEDGER_BACKEND", "postgres")

	err := runCompanies(context.Background(), Options{})

	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestJoinYears(t *testing.T) {
	if got := joinYears([]int{2021, 2022}); got != "2021, 2022" {
		t.Errorf("joinYears = %q", got)
	}
	if got := joinYears(nil); got != "" {
		t.Errorf("joinYears(nil) = %q", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"chat", "ask", "serve", "companies"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}
	if askCmd.Flags().Lookup("message").Shorthand != "m" {
		t.Error("ask should accept -m")
	}
}
