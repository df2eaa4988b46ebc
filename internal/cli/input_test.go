package cli

import (
	"errors"
	"testing"
)

func TestParseInvocation_Defaults(t *testing.T) {
	inv, err := ParseInvocation(nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.File != DefaultBakefile || inv.Target != "" || inv.Subdir != "" {
		t.Fatalf("unexpected invocation: %+v", inv)
	}
}

func TestParseInvocation_Target(t *testing.T) {
	inv, err := ParseInvocation([]string{"prog"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Target != "prog" {
		t.Fatalf("expected target prog, got %+v", inv)
	}
}

func TestParseInvocation_FileAndSub(t *testing.T) {
	inv, err := ParseInvocation([]string{"-f", "other/Bakefile", "-sub", "lib"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.File != "other/Bakefile" || inv.Subdir != "lib" {
		t.Fatalf("unexpected invocation: %+v", inv)
	}
}

func TestParseInvocation_ConfiguredDefaultFile(t *testing.T) {
	inv, err := ParseInvocation(nil, "Cookfile")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.File != "Cookfile" {
		t.Fatalf("expected configured default, got %+v", inv)
	}
}

func TestParseInvocation_LoggingSwitches(t *testing.T) {
	inv, err := ParseInvocation([]string{"-v", "-d", "prog"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.Verbose || !inv.Debug || inv.Target != "prog" {
		t.Fatalf("unexpected invocation: %+v", inv)
	}
}

func TestParseInvocation_Rejections(t *testing.T) {
	cases := [][]string{
		{"-f"},
		{"-f", "a", "-f", "b"},
		{"-sub"},
		{"-sub", "a", "-sub", "b"},
		{"t1", "t2"},
		{"--weird"},
	}
	for _, args := range cases {
		_, err := ParseInvocation(args, "")
		if err == nil {
			t.Fatalf("expected error for %v", args)
		}
		var invErr *InvocationError
		if !errors.As(err, &invErr) {
			t.Fatalf("expected InvocationError for %v, got %T", args, err)
		}
	}
}
