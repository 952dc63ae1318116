package main

import (
	"bytes"
	"testing"
)

// setupEnv points the CLI at endpoint with fast retries and no store.
func setupEnv(t *testing.T, endpoint string) {
	t.Helper()
	t.Chdir(t.TempDir())

	env := map[string]string{
		"LISTING_ENDPOINT":  endpoint,
		"PAGE_DELAY":        "0",
		"RETRY_BASE_DELAY":  "1ms",
		"MAX_RETRIES":       "3",
		"BREAKER_THRESHOLD": "5",
		"REDIS_URL":         "",
		"MAPS_COOKIE":       "SID=cli",
		"USER_AGENT":        "review-scraper-cli-test",
		"LOG_LEVEL":         "info",
		"LOG_PRETTY":        "false",
		"HTTP_TIMEOUT":      "5s",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRoot_Help(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1/unused")

	stdout, _, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, want := range []string{"scrape", "serve", "--log-level"} {
		if !bytes.Contains([]byte(stdout), []byte(want)) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestRoot_UnknownCommand(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1/unused")

	if _, _, err := execute(t, "crawl"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestApp_InitLoadsConfig(t *testing.T) {
	setupEnv(t, "http://mock.test/listugcposts")

	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))

	a := &app{logLevel: "debug"}
	if err := a.init(root); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if a.cfg.ListingEndpoint != "http://mock.test/listugcposts" {
		t.Errorf("ListingEndpoint = %q", a.cfg.ListingEndpoint)
	}
	if a.cfg.Cookie != "SID=cli" {
		t.Errorf("Cookie = %q", a.cfg.Cookie)
	}

	results, err := a.openStore(t.Context())
	if err != nil || results != nil {
		t.Errorf("openStore without REDIS_URL = (%v, %v), want (nil, nil)", results, err)
	}
}

func TestApp_OpenStoreInvalidURL(t *testing.T) {
	setupEnv(t, "http://mock.test/listugcposts")
	t.Setenv("REDIS_URL", "not-a-redis-url")

	a := &app{}
	if err := a.init(newRootCmd()); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := a.openStore(t.Context()); err == nil {
		t.Error("expected error for invalid REDIS_URL")
	}
}
