package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type loggerSpy struct {
	msg  string
	args []any
}

func (l *loggerSpy) Info(msg string, args ...any) {
	l.msg = msg
	l.args = args
}

func Test_LoggerMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("logs method status and size", func(t *testing.T) {
		spy := &loggerSpy{}
		handler := LoggerMiddleware(spy)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("hello"))
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/tasks", nil))

		require.Equal(t, http.StatusTeapot, rec.Code)
		require.Equal(t, "got HTTP request", spy.msg)

		logged := map[string]any{}
		for i := 0; i+1 < len(spy.args); i += 2 {
			logged[spy.args[i].(string)] = spy.args[i+1]
		}
		require.Equal(t, "GET", logged["method"])
		require.Equal(t, http.StatusTeapot, logged["status"])
		require.Equal(t, len("hello"), logged["size"])
	})

	t.Run("status defaults to 200 when not written", func(t *testing.T) {
		spy := &loggerSpy{}
		handler := LoggerMiddleware(spy)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		logged := map[string]any{}
		for i := 0; i+1 < len(spy.args); i += 2 {
			logged[spy.args[i].(string)] = spy.args[i+1]
		}
		require.Equal(t, http.StatusOK, logged["status"])
	})
}
