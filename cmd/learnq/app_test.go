package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/session"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const (
	coursesJSON = `[{"id":"c1","title":"Data Ethics","assignments":[
		{"user_id":"u1","status":"completed","result":90,"assigned_at":"2024-03-01T09:00:00Z","due_date":"2024-03-15T00:00:00Z","completed_at":"2024-03-02T10:00:00Z"},
		{"user_id":"u2","status":"pending","assigned_at":"2024-03-01T09:00:00Z","due_date":"2024-03-15T00:00:00Z"}]},
		{"id":"c2","title":"Sentiment and Summarisation","assignments":[]}]`
	usersJSON = `[{"id":"u1","name":"Ada Lovelace","groups":[{"name":"Engineering"}]},{"id":"u2","name":"Grace Hopper","groups":[]}]`
)

func newLMSServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		switch r.URL.Path {
		case "/courses":
			_, _ = w.Write([]byte(coursesJSON))
		case "/users":
			_, _ = w.Write([]byte(usersJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newLLMServer answers every completion with reply and counts the calls.
func newLLMServer(t *testing.T, reply string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func writeConfig(t *testing.T, lmsURL, llmURL string) string {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LEARNQ_LLM_API_KEY", "")
	t.Setenv("INNFORM_API_KEY", "")

	dir := t.TempDir()
	llmKey := ""
	if llmURL != "" {
		llmKey = "sk-test"
	}
	cfg := fmt.Sprintf(`lms:
  base_url: %s
  api_key: lms-key
llm:
  provider: openai
  endpoint: %q
  api_key: %q
log:
  dir: %s
history:
  enabled: true
  path: %s
`, lmsURL, llmURL, llmKey, filepath.Join(dir, "logs"), filepath.Join(dir, "history.db"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0600))
	return path
}

func TestNewAppLoadsCatalog(t *testing.T) {
	lmsSrv := newLMSServer(t, http.StatusOK)
	a, err := newApp(context.Background(), appOptions{configPath: writeConfig(t, lmsSrv.URL, "")})
	require.NoError(t, err)
	defer a.close()

	assert.Equal(t, []string{"Data Ethics", "Sentiment and Summarisation"}, a.pipeline.ListCourses())
	assert.Nil(t, a.guarded, "model client is built lazily")
}

func TestNewAppFailures(t *testing.T) {
	t.Run("catalog fetch fails", func(t *testing.T) {
		lmsSrv := newLMSServer(t, http.StatusInternalServerError)
		_, err := newApp(context.Background(), appOptions{configPath: writeConfig(t, lmsSrv.URL, "")})
		require.Error(t, err)
		assert.ErrorIs(t, err, lqerrors.ErrTransport)
	})

	t.Run("query mode needs model settings", func(t *testing.T) {
		lmsSrv := newLMSServer(t, http.StatusOK)
		_, err := newApp(context.Background(), appOptions{
			configPath: writeConfig(t, lmsSrv.URL, ""),
			needLLM:    true,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, lqerrors.ErrConfigMissing)
	})
}

func TestNewAppFirstRunHint(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LEARNQ_LMS_API_KEY", "")
	t.Setenv("INNFORM_API_KEY", "")

	_, err := newApp(context.Background(), appOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, lqerrors.ErrConfigMissing)
	assert.Contains(t, session.UserMessage(err), `run "learnq configure"`)

	t.Run("explicit config path gets no hint", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("lms:\n  base_url: http://127.0.0.1:1\n"), 0600))

		_, err := newApp(context.Background(), appOptions{configPath: path})
		require.Error(t, err)
		assert.NotContains(t, session.UserMessage(err), "learnq configure")
	})
}

func TestRunFlagCommand(t *testing.T) {
	lmsSrv := newLMSServer(t, http.StatusOK)

	t.Run("exact course needs no model", func(t *testing.T) {
		a, err := newApp(context.Background(), appOptions{configPath: writeConfig(t, lmsSrv.URL, "")})
		require.NoError(t, err)
		defer a.close()

		var out bytes.Buffer
		err = a.runFlagCommand(context.Background(), parseLegacyArgs([]string{"Data Ethics", "-s"}), &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Data Ethics")
		assert.Contains(t, out.String(), "Completed (1)")
		assert.Contains(t, out.String(), "Ada Lovelace")
	})

	t.Run("fuzzy course goes through the model", func(t *testing.T) {
		llmSrv, calls := newLLMServer(t, "Data Ethics")
		a, err := newApp(context.Background(), appOptions{configPath: writeConfig(t, lmsSrv.URL, llmSrv.URL)})
		require.NoError(t, err)
		defer a.close()

		var out bytes.Buffer
		err = a.runFlagCommand(context.Background(), parseLegacyArgs([]string{"data ethic", "-r"}), &out)
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		assert.Contains(t, out.String(), "Highest Score: 90%")
	})

	t.Run("learner info", func(t *testing.T) {
		a, err := newApp(context.Background(), appOptions{configPath: writeConfig(t, lmsSrv.URL, "")})
		require.NoError(t, err)
		defer a.close()

		var out bytes.Buffer
		err = a.runFlagCommand(context.Background(), parseLegacyArgs([]string{"Ada Lovelace", "-i"}), &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Ada Lovelace - Average Score: 90.00%")
	})

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "unknown instruction", args: []string{"Data Ethics", "-z"}, wantErr: lqerrors.ErrUnrecognizedInstruction},
		{name: "unknown filter", args: []string{"Data Ethics", "-s", "/bogus"}, wantErr: lqerrors.ErrInvalidFilter},
		{name: "result filter on statuses", args: []string{"Data Ethics", "-s", "/full"}, wantErr: lqerrors.ErrInvalidFilter},
		{name: "fuzzy match without model settings", args: []string{"data ethic", "-s"}, wantErr: lqerrors.ErrConfigMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newApp(context.Background(), appOptions{configPath: writeConfig(t, lmsSrv.URL, "")})
			require.NoError(t, err)
			defer a.close()

			var out bytes.Buffer
			err = a.runFlagCommand(context.Background(), parseLegacyArgs(tt.args), &out)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, out.String())
		})
	}
}

func TestAskRecordsHistory(t *testing.T) {
	lmsSrv := newLMSServer(t, http.StatusOK)
	llmSrv, calls := newLLMServer(t, `{"instruction":"-s","courseName":"Data Ethics","filter":"/completed","userListRequested":true}`)

	a, err := newApp(context.Background(), appOptions{
		configPath: writeConfig(t, lmsSrv.URL, llmSrv.URL),
		needLLM:    true,
	})
	require.NoError(t, err)
	defer a.close()

	var out bytes.Buffer
	require.NoError(t, a.ask(context.Background(), "who finished data ethics?", &out))

	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "exact course title needs no second call")
	assert.Contains(t, out.String(), "Completed (1)")
	assert.NotContains(t, out.String(), "Not Started")

	require.NotNil(t, a.history)
	entries, err := a.history.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "who finished data ethics?", entries[0].Utterance)
	assert.Equal(t, "Data Ethics", entries[0].Course)
	assert.Equal(t, "ok", entries[0].Outcome)
}

func TestWriteCourses(t *testing.T) {
	lmsSrv := newLMSServer(t, http.StatusOK)
	a, err := newApp(context.Background(), appOptions{configPath: writeConfig(t, lmsSrv.URL, "")})
	require.NoError(t, err)
	defer a.close()

	path := filepath.Join(t.TempDir(), "export", "courses.json")
	var out bytes.Buffer
	require.NoError(t, a.writeCourses(path, &out))
	assert.Contains(t, out.String(), "Data written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Data Ethics"`)
}
