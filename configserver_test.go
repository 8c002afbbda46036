package configcat

import (
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/configcat/go-sdk/v9/configcatcache"
	"github.com/configcat/go-sdk/v9/internal/wireconfig"
)

type configServer struct {
	srv *httptest.Server
	key string
	t   testing.TB

	mu           sync.Mutex
	resp         *configResponse
	requests     []*http.Request
	requestCount int
}

type configResponse struct {
	status int
	body   string
	sleep  time.Duration
}

func newConfigServer(t testing.TB) *configServer {
	var buf [8]byte
	rand.Read(buf[:])
	return newConfigServerWithKey(t, fmt.Sprintf("testing-%x", buf[:]))
}

func newConfigServerWithKey(t testing.TB, sdkKey string) *configServer {
	srv := &configServer{
		t:   t,
		key: sdkKey,
	}
	srv.srv = httptest.NewServer(srv)
	t.Cleanup(srv.srv.Close)
	return srv
}

// config returns a configuration suitable for creating
// a client that talks to the server.
func (srv *configServer) config() ClientConfig {
	return ClientConfig{
		BaseURL: srv.srv.URL,
		Logger:  newTestLogger(srv.t),
		Mode:    ManualPoll(),
	}
}

// setResponse sets the response that will be returned from the server.
func (srv *configServer) setResponse(response configResponse) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.resp = &response
}

func (srv *configServer) setResponseJSON(x interface{}) {
	srv.setResponse(configResponse{
		body: marshalJSON(x),
	})
}

func (srv *configServer) count() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.requestCount
}

func (srv *configServer) lastRequest() *http.Request {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.requests) == 0 {
		return nil
	}
	return srv.requests[len(srv.requests)-1]
}

func (srv *configServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/configuration-files/"+srv.key+"/"+configcatcache.ConfigJSONName {
		srv.t.Errorf("unexpected HTTP call: %s %s", req.Method, req.URL)
		http.NotFound(w, req)
		return
	}
	srv.mu.Lock()
	srv.requestCount++
	srv.requests = append(srv.requests, req)
	resp0 := srv.resp
	srv.mu.Unlock()
	if resp0 == nil {
		srv.t.Errorf("HTTP call with no response provided")
		http.Error(w, "unexpected call", http.StatusInternalServerError)
		return
	}
	resp := *resp0
	time.Sleep(resp.sleep)
	if resp.status == 0 {
		w.Header().Set("Etag", etagOf(resp.body))
		if req.Header.Get("If-None-Match") == etagOf(resp.body) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		resp.status = http.StatusOK
	}
	w.WriteHeader(resp.status)
	w.Write([]byte(resp.body))
}

func etagOf(content string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

func marshalJSON(x interface{}) string {
	data, err := json.Marshal(x)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// rootNodeWithValues returns a configuration holding one untargeted
// setting per entry of values.
func rootNodeWithValues(values map[string]interface{}) *wireconfig.RootNode {
	root := &wireconfig.RootNode{Entries: map[string]*wireconfig.Entry{}}
	for key, value := range values {
		entry := &wireconfig.Entry{VariationID: "v-" + key, Value: value}
		switch value.(type) {
		case bool:
			entry.Type = wireconfig.BoolEntry
		case string:
			entry.Type = wireconfig.StringEntry
		case int:
			entry.Type = wireconfig.IntEntry
		case float64:
			entry.Type = wireconfig.FloatEntry
		default:
			panic(fmt.Errorf("unexpected value type %T", value))
		}
		root.Entries[key] = entry
	}
	return root
}

// testLogger implements the Logger interface by logging to the test.T
// instance.
type testLogger struct {
	sync.RWMutex

	t    testing.TB
	logs []string
}

func newTestLogger(t testing.TB) *testLogger {
	return &testLogger{
		t: t,
	}
}

func (log *testLogger) logf(level string, format string, args ...interface{}) {
	log.Lock()
	defer log.Unlock()
	s := level + ": " + fmt.Sprintf(format, args...)
	log.logs = append(log.logs, s)
	log.t.Log(s)
}

func (log *testLogger) Debugf(format string, args ...interface{}) {
	log.logf("DEBUG", format, args...)
}

func (log *testLogger) Infof(format string, args ...interface{}) {
	log.logf("INFO", format, args...)
}

func (log *testLogger) Warnf(format string, args ...interface{}) {
	log.logf("WARN", format, args...)
}

func (log *testLogger) Errorf(format string, args ...interface{}) {
	log.logf("ERROR", format, args...)
}

func (log *testLogger) Logs() []string {
	log.RLock()
	defer log.RUnlock()
	return append([]string(nil), log.logs...)
}
