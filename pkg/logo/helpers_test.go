package logo_test

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

type item struct {
	Code  string `json:"CODE"`
	Title string `json:"TITLE"`
}

type call struct {
	Method   string
	Path     string
	RawQuery string
	Body     interface{}
}

// fakeRequester serves canned bodies keyed by "path?query" for Request and by
// href for FollowLink.
type fakeRequester struct {
	mu        sync.Mutex
	responses map[string][]byte
	failures  map[string]error
	calls     []call
	links     []string
}

func newFakeRequester() *fakeRequester {
	return &fakeRequester{
		responses: make(map[string][]byte),
		failures:  make(map[string]error),
	}
}

func (f *fakeRequester) respond(key string, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}

	f.responses[key] = data
}

func (f *fakeRequester) fail(key string, err error) {
	f.failures[key] = err
}

func (f *fakeRequester) serve(key string) ([]byte, error) {
	if err, ok := f.failures[key]; ok {
		return nil, err
	}

	if body, ok := f.responses[key]; ok {
		return body, nil
	}

	return nil, logo.NewHTTPError("GET", key, 404, nil, nil)
}

func (f *fakeRequester) Request(_ context.Context, method, path, rawQuery string, body interface{}) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{Method: method, Path: path, RawQuery: rawQuery, Body: body})

	return f.serve(logo.CacheKey(path, rawQuery))
}

func (f *fakeRequester) FollowLink(_ context.Context, link logo.Link) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.links = append(f.links, link.Href)

	return f.serve(link.Href)
}

func (f *fakeRequester) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls) + len(f.links)
}

// threePages registers a three page listing of /items.
func threePages(f *fakeRequester) {
	f.respond("/items?limit=2", logo.Envelope[item]{
		Items:      []item{{Code: "A"}, {Code: "B"}},
		Count:      2,
		TotalCount: 5,
		Limit:      2,
		Next:       &logo.Link{Href: "/items?limit=2&offset=2"},
	})
	f.respond("/items?limit=2&offset=2", logo.Envelope[item]{
		Items:      []item{{Code: "C"}, {Code: "D"}},
		Offset:     2,
		Count:      2,
		TotalCount: 5,
		Limit:      2,
		Next:       &logo.Link{Href: "/items?limit=2&offset=4"},
	})
	f.respond("/items?limit=2&offset=4", logo.Envelope[item]{
		Items:      []item{{Code: "E"}},
		Offset:     4,
		Count:      1,
		TotalCount: 5,
		Limit:      2,
	})
}

type logEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// recordingLogger keeps every message it receives.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{Level: level, Message: msg, Fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]string, 0, len(l.entries))
	for _, entry := range l.entries {
		result = append(result, entry.Message)
	}

	return result
}

// escapeForTest mirrors the query value encoding: spaces become %20.
func escapeForTest(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
