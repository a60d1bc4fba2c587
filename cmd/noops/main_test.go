package main

import "testing"

func TestRootCommandHasLoginAndDeploy(t *testing.T) {
	root := newRootCmd()

	if cmd, _, err := root.Find([]string{"login"}); err != nil || cmd.Name() != "login" {
		t.Fatalf("expected login subcommand, got %v, err %v", cmd, err)
	}
	if cmd, _, err := root.Find([]string{"deploy"}); err != nil || cmd.Name() != "deploy" {
		t.Fatalf("expected deploy subcommand, got %v, err %v", cmd, err)
	}
}
