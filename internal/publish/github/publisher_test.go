package github

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/britney/pkg/models"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func makeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestCreateIssuePostsToRepoIssues(t *testing.T) {
	p := NewPublisher(Config{Owner: "octo", Repo: "widgets", Token: "secret"})

	var capturedURL, capturedAuth string
	var capturedBody map[string]interface{}
	p.httpClient = &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")
		payload, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(payload, &capturedBody)
		return makeResponse(http.StatusCreated, `{"number":7,"html_url":"https://github.com/octo/widgets/issues/7"}`)
	})}

	url, err := p.CreateIssue(context.Background(), models.Issue{
		Title:  "Add retry logic",
		Body:   "Details",
		Labels: []string{"enhancement"},
	})

	require.NoError(t, err)
	require.Equal(t, "https://github.com/octo/widgets/issues/7", url)
	require.Equal(t, "https://api.github.com/repos/octo/widgets/issues", capturedURL)
	require.Equal(t, "token secret", capturedAuth)
	require.Equal(t, "Add retry logic", capturedBody["title"])
	require.Equal(t, "Details", capturedBody["body"])
	require.Equal(t, []interface{}{"enhancement"}, capturedBody["labels"])
	require.NotContains(t, capturedBody, "assignees")
}

func TestCreateIssueUsesCustomAPIURL(t *testing.T) {
	p := NewPublisher(Config{Owner: "octo", Repo: "widgets", APIURL: "https://ghe.example.com/api/v3/"})

	var capturedURL string
	p.httpClient = &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
		capturedURL = req.URL.String()
		require.Empty(t, req.Header.Get("Authorization"))
		return makeResponse(http.StatusCreated, `{"html_url":"https://ghe.example.com/octo/widgets/issues/1"}`)
	})}

	_, err := p.CreateIssue(context.Background(), models.Issue{Title: "t"})

	require.NoError(t, err)
	require.Equal(t, "https://ghe.example.com/api/v3/repos/octo/widgets/issues", capturedURL)
}

func TestCreateIssueErrorStatus(t *testing.T) {
	p := NewPublisher(Config{Owner: "octo", Repo: "widgets"})
	p.httpClient = &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
		return makeResponse(http.StatusUnauthorized, `{"message":"Bad credentials"}`)
	})}

	_, err := p.CreateIssue(context.Background(), models.Issue{Title: "t"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
	require.Contains(t, err.Error(), "Bad credentials")
}

func TestCreateIssueMissingURL(t *testing.T) {
	p := NewPublisher(Config{Owner: "octo", Repo: "widgets"})
	p.httpClient = &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
		return makeResponse(http.StatusCreated, `{}`)
	})}

	_, err := p.CreateIssue(context.Background(), models.Issue{Title: "t"})

	require.ErrorContains(t, err, "missing html_url")
}

func TestCreateIssueRequiresRepository(t *testing.T) {
	p := NewPublisher(Config{Token: "secret"})

	_, err := p.CreateIssue(context.Background(), models.Issue{Title: "t"})

	require.ErrorContains(t, err, "owner and repo are required")
}
