// File: internal/portal/fetcher_test.go
package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const availabilityBody = `{
	"success": true,
	"totalCount": 2,
	"data": [
		{"courseReferenceNumber": "31375", "seatsAvailable": 0, "subject": "CS"},
		{"courseReferenceNumber": "31376", "seatsAvailable": 2, "subject": "CS"},
		{"courseReferenceNumber": "31377", "seatsAvailable": 1, "subject": "CS"}
	]
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFetcher(srv.URL, srv.Client(), zaptest.NewLogger(t)), srv
}

func TestFetch_NoFilterReturnsFullListInOrder(t *testing.T) {
	t.Parallel()

	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(availabilityBody))
	})

	target, err := NewCourseTarget("Computer Science", "CS", "421", nil)
	require.NoError(t, err)

	got, err := f.Fetch(context.Background(), target, Credentials{})
	require.NoError(t, err)
	assert.Equal(t, []CourseStatus{
		{ReferenceNumber: "31375", SeatsAvailable: 0},
		{ReferenceNumber: "31376", SeatsAvailable: 2},
		{ReferenceNumber: "31377", SeatsAvailable: 1},
	}, got)
}

func TestFetch_FilterNormalizationIdempotence(t *testing.T) {
	t.Parallel()

	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(availabilityBody))
	})

	// The same ids in scalar, slice, and set form must filter identically.
	forms := []any{
		[]string{"31375", "31376"},
		[]int{31375, 31376},
		[]any{"31375", 31376},
		map[string]struct{}{"31375": {}, "31376": {}},
	}

	var first []CourseStatus
	for i, form := range forms {
		target, err := NewCourseTarget("Computer Science", "CS", "421", form)
		require.NoError(t, err)

		got, err := f.Fetch(context.Background(), target, Credentials{})
		require.NoError(t, err)
		if i == 0 {
			first = got
			assert.Len(t, first, 2)
			continue
		}
		assert.Equal(t, first, got, "container form %T filtered differently", form)
	}
}

func TestFetch_SuccessFalseIsFetchError(t *testing.T) {
	t.Parallel()

	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "data": []}`))
	})

	target, err := NewCourseTarget("Computer Science", "CS", "421", nil)
	require.NoError(t, err)

	got, err := f.Fetch(context.Background(), target, Credentials{})
	assert.Nil(t, got, "must never return a partial list")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Detail, "success=false")
}

func TestFetch_MalformedBodyIsFetchError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "Not JSON", body: `<html>login page</html>`},
		{name: "Missing data array", body: `{"success": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			target, err := NewCourseTarget("Computer Science", "CS", "421", nil)
			require.NoError(t, err)

			_, err = f.Fetch(context.Background(), target, Credentials{})
			var fe *FetchError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestFetch_NonOKStatusIsFetchError(t *testing.T) {
	t.Parallel()

	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		// Expired sessions redirect to the login page; the client does not
		// follow, so the raw 302 surfaces here.
		w.WriteHeader(http.StatusFound)
	})

	target, err := NewCourseTarget("Computer Science", "CS", "421", nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), target, Credentials{})
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Detail, "302")
}

func TestFetch_MergesCredentialsIntoRequest(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		w.Write([]byte(availabilityBody))
	})

	creds := Credentials{
		Headers:     map[string]string{"Cookie": "JSESSIONID=deadbeef", "X-Synchronizer-Token": "tok"},
		QueryParams: map[string]string{"uniqueSessionId": "abc123"},
	}
	target, err := NewCourseTarget("Computer Science", "CS", "421", nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), target, creds)
	require.NoError(t, err)
	require.NotNil(t, seen)

	q := seen.URL.Query()
	assert.Equal(t, "CS", q.Get("txt_subject"))
	assert.Equal(t, "421", q.Get("txt_courseNumber"))
	assert.Equal(t, "abc123", q.Get("uniqueSessionId"))
	assert.Equal(t, "JSESSIONID=deadbeef", seen.Header.Get("Cookie"))
	assert.Equal(t, "tok", seen.Header.Get("X-Synchronizer-Token"))
}
