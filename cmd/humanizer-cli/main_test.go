package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(path, []byte("  from a file \n"), 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}

	tests := []struct {
		name     string
		file     string
		args     []string
		stdin    string
		expected string
		wantErr  bool
	}{
		{name: "Arguments are joined", args: []string{"hello", "there"}, expected: "hello there"},
		{name: "File wins over arguments", file: path, args: []string{"ignored"}, expected: "from a file"},
		{name: "Stdin fallback", stdin: "\tpiped text\n", expected: "piped text"},
		{name: "Blank input", stdin: "   ", wantErr: true},
		{name: "Missing file", file: filepath.Join(dir, "missing.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileFlag = tt.file
			defer func() { fileFlag = "" }()

			got, err := readText(strings.NewReader(tt.stdin), tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Did not expect an error but got: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestOptionsAndThreshold(t *testing.T) {
	noParaphraseFlag, noEnhancedFlag, modelFlag = true, false, " custom/model "
	defer func() { noParaphraseFlag, noEnhancedFlag, modelFlag = false, false, "" }()

	opts := options()
	if opts.UseParaphrasing || !opts.UseEnhancedRewriting || opts.ParaphraseModel != "custom/model" {
		t.Errorf("Unexpected options %+v", opts)
	}

	for threshold, valid := range map[float64]bool{0: true, 0.7: true, 1: true, -0.01: false, 1.01: false} {
		thresholdFlag = threshold
		if err := checkThreshold(); (err == nil) != valid {
			t.Errorf("threshold %v: expected valid=%v, got %v", threshold, valid, err)
		}
	}
	thresholdFlag = 0.7
}

func TestHumanizeCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"generated_text":"Rewritten — by the model ."}]`)
	}))
	defer server.Close()

	t.Setenv("HF_API_TOKEN", "secret")
	t.Setenv("HF_API_URL", server.URL)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"humanize", "--no-paraphrase", "Some machine written text."})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		noParaphraseFlag = false
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Did not expect an error but got: %v", err)
	}

	var result struct {
		HumanizedText string `json:"humanized_text"`
		Statistics    struct {
			FinalLength     int      `json:"final_length"`
			ProcessingSteps []string `json:"processing_steps"`
		} `json:"statistics"`
	}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode output %q: %v", out.String(), err)
	}
	if result.HumanizedText != "Rewritten,  by the model." {
		t.Errorf("Unexpected humanized text %q", result.HumanizedText)
	}
	if result.Statistics.FinalLength != len([]rune(result.HumanizedText)) {
		t.Errorf("final_length %d does not match the output", result.Statistics.FinalLength)
	}
	if strings.Join(result.Statistics.ProcessingSteps, ",") != "rewriting,text_cleaning" {
		t.Errorf("Unexpected steps %v", result.Statistics.ProcessingSteps)
	}
}
