package event

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/internal/store"
)

// closeNotifyRecorder mirrors gin's internal test recorder: c.Stream needs a
// ResponseWriter that implements http.CloseNotifier.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closeChannel chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool {
	return r.closeChannel
}

func newCloseNotifyRecorder() *closeNotifyRecorder {
	return &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}

type fakeSource struct {
	changes    chan store.Change
	cancelled  bool
	subscribed chan struct{}
}

func (f *fakeSource) Subscribe(int) (<-chan store.Change, func()) {
	if f.subscribed != nil {
		close(f.subscribed)
	}
	return f.changes, func() { f.cancelled = true }
}

func TestStreamWritesChanges(t *testing.T) {
	gin.SetMode(gin.TestMode)

	src := &fakeSource{changes: make(chan store.Change, 2)}
	src.changes <- store.Change{Kind: store.ChangeCreated, Collection: model.CollectionPatients, ID: 5, At: time.Now()}
	src.changes <- store.Change{Kind: store.ChangeDeleted, Collection: model.CollectionAppointments, ID: 9, At: time.Now()}
	close(src.changes)

	r := gin.New()
	r.GET("/events", NewHandler(src, time.Hour).Stream)

	w := newCloseNotifyRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	body := w.Body.String()
	assert.Contains(t, body, "event:patients")
	assert.Contains(t, body, `"kind":"created"`)
	assert.Contains(t, body, "event:appointments")
	assert.Contains(t, body, `"id":9`)
	assert.True(t, src.cancelled)
}

func TestShutdownEndsOpenStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	src := &fakeSource{changes: make(chan store.Change), subscribed: make(chan struct{})}
	h := NewHandler(src, time.Hour)
	r := gin.New()
	r.GET("/events", h.Stream)

	w := newCloseNotifyRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	}()

	<-src.subscribed
	h.Shutdown()
	h.Shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "stream still open after shutdown")
	}
	assert.Equal(t, http.StatusOK, w.Code)

	late := httptest.NewRecorder()
	r.ServeHTTP(late, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, late.Code)
}
