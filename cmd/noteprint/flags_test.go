package main

import (
	"testing"
	"time"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, f *cliFlags)
	}{
		{
			name: "defaults",
			args: nil,
			check: func(t *testing.T, f *cliFlags) {
				if f.ticketID != "1" {
					t.Errorf("ticketID = %q, want \"1\"", f.ticketID)
				}
				if f.date != "auto" {
					t.Errorf("date = %q, want \"auto\"", f.date)
				}
				if f.print || f.htmlOnly || f.dryRun {
					t.Error("action flags should default to false")
				}
			},
		},
		{
			name: "full print invocation",
			args: []string{
				"-t", "buy milk", "-c", "compras", "--ticket-id", "42",
				"-p", "--timeout", "45s", "-v",
			},
			check: func(t *testing.T, f *cliFlags) {
				if f.text != "buy milk" || f.category != "compras" || f.ticketID != "42" {
					t.Errorf("note flags = %q/%q/%q", f.text, f.category, f.ticketID)
				}
				if !f.print || !f.verbose {
					t.Error("print/verbose not parsed")
				}
				if f.timeout != 45*time.Second {
					t.Errorf("timeout = %v, want 45s", f.timeout)
				}
			},
		},
		{
			name: "positional words",
			args: []string{"-c", "casa", "fix", "the", "door"},
			check: func(t *testing.T, f *cliFlags) {
				if got := f.noteText(); got != "fix the door" {
					t.Errorf("noteText() = %q, want \"fix the door\"", got)
				}
			},
		},
		{
			name: "text flag wins over words",
			args: []string{"--text", "explicit", "ignored", "words"},
			check: func(t *testing.T, f *cliFlags) {
				if got := f.noteText(); got != "explicit" {
					t.Errorf("noteText() = %q, want \"explicit\"", got)
				}
			},
		},
		{
			name: "batch flags",
			args: []string{"--batch", "notes.txt", "--workers", "2"},
			check: func(t *testing.T, f *cliFlags) {
				if f.batch != "notes.txt" || f.workers != 2 {
					t.Errorf("batch flags = %q/%d", f.batch, f.workers)
				}
			},
		},
		{
			name: "preview flags",
			args: []string{"-t", "x", "-o", "out.png", "-w", "200", "--html"},
			check: func(t *testing.T, f *cliFlags) {
				if f.output != "out.png" || f.width != 200 || !f.htmlOnly {
					t.Errorf("preview flags = %q/%d/%v", f.output, f.width, f.htmlOnly)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFlags(tt.args)
			if err != nil {
				t.Fatalf("parseFlags(%v) error = %v", tt.args, err)
			}
			tt.check(t, f)
		})
	}
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	if _, err := parseFlags([]string{"--bogus"}); err == nil {
		t.Fatal("parseFlags() accepted an unknown flag")
	}
}

func TestNoteTextEmpty(t *testing.T) {
	f, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if got := f.noteText(); got != "" {
		t.Errorf("noteText() = %q, want empty", got)
	}
}
