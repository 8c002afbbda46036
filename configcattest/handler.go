// Package configcattest provides an HTTP handler that
// can be used to test configcat scenarios in tests.
package configcattest

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/configcat/go-sdk/v9/internal/wireconfig"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler is an http.Handler that serves up configcat flags.
// The zero value is OK to use and has no flag configurations.
// Use SetFlags to add or update the set of flags served.
//
// Responses carry an ETag, and requests with a matching If-None-Match
// header get 304 Not Modified.
type Handler struct {
	mu       sync.Mutex
	contents map[string]content
	failures map[string]int
	requests int
}

type content struct {
	data []byte
	eTag string
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != "GET" {
		http.Error(w, "only GET is allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mu.Lock()
	h.requests++
	content, ok := h.contents[req.URL.Path]
	status := h.failures[req.URL.Path]
	h.mu.Unlock()
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("ETag", content.eTag)
	if req.Header.Get("If-None-Match") == content.eTag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(content.data)
}

// SetFlags sets or updates the flags served by the handler for the
// given SDK key. It can be called concurrently with other Handler methods.
//
// Use RandomSDKKey to create a new SDK key.
func (h *Handler) SetFlags(sdkKey string, flags map[string]*Flag) error {
	if sdkKey == "" {
		return fmt.Errorf("empty SDK key passed to configcattest.Handler.SetFlags")
	}
	data, err := makeContent(flags)
	if err != nil {
		return err
	}
	sum := sha1.Sum(data)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.contents == nil {
		h.contents = make(map[string]content)
	}
	h.contents[configPath(sdkKey)] = content{
		data: data,
		eTag: `"` + hex.EncodeToString(sum[:]) + `"`,
	}
	return nil
}

// SetStatus makes requests for the given SDK key fail with the given
// HTTP status code. A zero status restores normal serving.
func (h *Handler) SetStatus(sdkKey string, status int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failures == nil {
		h.failures = make(map[string]int)
	}
	if status == 0 {
		delete(h.failures, configPath(sdkKey))
		return
	}
	h.failures[configPath(sdkKey)] = status
}

// Requests returns the number of GET requests the handler has received.
func (h *Handler) Requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}

func configPath(sdkKey string) string {
	return "/configuration-files/" + sdkKey + "/config_v5.json"
}

func makeContent(flags map[string]*Flag) ([]byte, error) {
	root := &wireconfig.RootNode{
		Entries: make(map[string]*wireconfig.Entry, len(flags)),
	}
	for name, flag := range flags {
		e, err := flag.entry(name)
		if err != nil {
			return nil, fmt.Errorf("invalid flag %q: %v", name, err)
		}
		root.Entries[name] = e
	}
	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal configuration: %v", err)
	}
	return data, nil
}

// RandomSDKKey returns a new randomly generated SDK key
// suitable for passing to SetFlags.
func RandomSDKKey() string {
	var k sdkKey
	if _, err := rand.Read(k.org[:]); err != nil {
		panic(err)
	}
	if _, err := rand.Read(k.product[:]); err != nil {
		panic(err)
	}
	return k.String()
}

type sdkKey struct {
	org, product [16]byte
}

func (k sdkKey) String() string {
	enc := base64.RawURLEncoding
	n := enc.EncodedLen(len(k.org))
	b := make([]byte, n*2+1)
	enc.Encode(b, k.org[:])
	b[n] = '/'
	enc.Encode(b[n+1:], k.product[:])
	return string(b)
}
