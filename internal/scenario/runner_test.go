package scenario

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanguard-load/vanguard/internal/httpclient"
	"github.com/vanguard-load/vanguard/pkg/model"
)

func TestSimpleMode_OneOutcomePerPass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.Options{Concurrency: 1, Timeout: time.Second})
	defer client.Close()

	wl := model.Workload{Kind: model.WorkloadSimple, Simple: model.RequestSpec{Method: "GET", URL: srv.URL}}
	r, err := New(client, wl)
	require.NoError(t, err)

	var outcomes []model.Outcome
	r.RunPass(context.Background(), time.Now(), map[string]string{}, func(o model.Outcome) {
		outcomes = append(outcomes, o)
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success())
	assert.Equal(t, 200, outcomes[0].Status)
}

func TestScenario_TemplateSubstitutionAcrossSteps(t *testing.T) {
	var gotURL, gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"xyz","user":{"id":"42"}}`))
	})
	mux.HandleFunc("/users/42/profile", func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(200)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := httpclient.New(httpclient.Options{Concurrency: 1, Timeout: time.Second})
	defer client.Close()

	wl := model.Workload{
		Kind:    model.WorkloadScenario,
		BaseURL: srv.URL,
		Scenario: []model.ScenarioStep{
			{
				Name:    "login",
				Spec:    model.RequestSpec{Method: "POST", URL: "/login"},
				Extract: map[string]string{"token": "$.access_token", "user_id": "$.user.id"},
			},
			{
				Name:      "profile",
				DependsOn: "login",
				Spec: model.RequestSpec{
					Method: "GET",
					URL:    "/users/{{user_id}}/profile",
					Headers: []model.Header{
						{Name: "Authorization", Value: "Bearer {{token}}"},
					},
				},
			},
		},
	}
	r, err := New(client, wl)
	require.NoError(t, err)

	var outcomes []model.Outcome
	r.RunPass(context.Background(), time.Now(), map[string]string{}, func(o model.Outcome) {
		outcomes = append(outcomes, o)
	})

	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Success())
	assert.True(t, outcomes[1].Success())
	assert.Equal(t, "/users/42/profile", gotURL)
	assert.Equal(t, "Bearer xyz", gotAuth)
}

func TestScenario_DependencyFailureCascade(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	})
	mux.HandleFunc("/next", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := httpclient.New(httpclient.Options{Concurrency: 1, Timeout: time.Second})
	defer client.Close()

	wl := model.Workload{
		Kind:    model.WorkloadScenario,
		BaseURL: srv.URL,
		Scenario: []model.ScenarioStep{
			{Name: "step1", Spec: model.RequestSpec{Method: "GET", URL: "/fail"}},
			{Name: "step2", DependsOn: "step1", Spec: model.RequestSpec{Method: "GET", URL: "/next"}},
		},
	}
	r, err := New(client, wl)
	require.NoError(t, err)

	var outcomes []model.Outcome
	r.RunPass(context.Background(), time.Now(), map[string]string{}, func(o model.Outcome) {
		outcomes = append(outcomes, o)
	})

	require.Len(t, outcomes, 2)
	assert.Equal(t, 500, outcomes[0].Status)
	assert.False(t, outcomes[0].Success())
	assert.Equal(t, 0, outcomes[1].Status)
	assert.Equal(t, model.ErrDependencyFailed, outcomes[1].ErrorKind)
}

func TestScenario_MonotonicTimestampsWithinPass(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := httpclient.New(httpclient.Options{Concurrency: 1, Timeout: time.Second})
	defer client.Close()

	wl := model.Workload{
		Kind:    model.WorkloadScenario,
		BaseURL: srv.URL,
		Scenario: []model.ScenarioStep{
			{Name: "a", Spec: model.RequestSpec{Method: "GET", URL: "/a"}},
			{Name: "b", Spec: model.RequestSpec{Method: "GET", URL: "/b"}},
		},
	}
	r, err := New(client, wl)
	require.NoError(t, err)

	var outcomes []model.Outcome
	r.RunPass(context.Background(), time.Now(), map[string]string{}, func(o model.Outcome) {
		outcomes = append(outcomes, o)
	})
	require.Len(t, outcomes, 2)
	assert.LessOrEqual(t, outcomes[0].TimestampMs, outcomes[1].TimestampMs)
}

func TestScenario_AssertionFailureDoesNotFlipSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := httpclient.New(httpclient.Options{Concurrency: 1, Timeout: time.Second})
	defer client.Close()

	wl := model.Workload{
		Kind: model.WorkloadScenario,
		Scenario: []model.ScenarioStep{
			{
				Name: "check",
				Spec: model.RequestSpec{Method: "GET", URL: srv.URL + "/status"},
				Assertions: []model.Assertion{
					{Type: model.AssertJSONPath, Path: "status", Value: "healthy"},
				},
			},
		},
	}
	r, err := New(client, wl)
	require.NoError(t, err)

	var outcomes []model.Outcome
	r.RunPass(context.Background(), time.Now(), map[string]string{}, func(o model.Outcome) {
		outcomes = append(outcomes, o)
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success())
	assert.True(t, outcomes[0].AssertionFailed)
	assert.NotEmpty(t, outcomes[0].AssertionMessage)
}

func TestNew_RejectsInvalidAssertionRegex(t *testing.T) {
	client := httpclient.New(httpclient.Options{Concurrency: 1, Timeout: time.Second})
	defer client.Close()

	wl := model.Workload{
		Kind: model.WorkloadScenario,
		Scenario: []model.ScenarioStep{
			{
				Name:       "bad",
				Spec:       model.RequestSpec{Method: "GET", URL: "http://example.invalid"},
				Assertions: []model.Assertion{{Type: model.AssertRegex, Value: "("}},
			},
		},
	}
	_, err := New(client, wl)
	assert.Error(t, err)
}

func TestScenario_MissingVariableIsTemplateError(t *testing.T) {
	client := httpclient.New(httpclient.Options{Concurrency: 1, Timeout: time.Second})
	defer client.Close()

	wl := model.Workload{
		Kind: model.WorkloadScenario,
		Scenario: []model.ScenarioStep{
			{Name: "a", Spec: model.RequestSpec{Method: "GET", URL: "http://example.invalid/{{missing}}"}},
		},
	}
	r, err := New(client, wl)
	require.NoError(t, err)

	var outcomes []model.Outcome
	r.RunPass(context.Background(), time.Now(), map[string]string{}, func(o model.Outcome) {
		outcomes = append(outcomes, o)
	})
	require.Len(t, outcomes, 1)
	assert.Equal(t, model.ErrTemplateError, outcomes[0].ErrorKind)
	assert.Contains(t, outcomes[0].ErrorMessage, "missing")
}
