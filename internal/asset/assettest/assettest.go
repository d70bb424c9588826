// Package assettest serves binary glTF fixtures over HTTP for tests.
package assettest

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MinimalGLB returns a well-formed GLB container with a JSON chunk only.
func MinimalGLB() []byte {
	doc := []byte(`{"asset":{"version":"2.0"}}`)
	for len(doc)%4 != 0 {
		doc = append(doc, ' ')
	}
	total := 12 + 8 + len(doc)

	var buf bytes.Buffer
	buf.WriteString("glTF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(total))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(doc)))
	buf.WriteString("JSON")
	buf.Write(doc)
	return buf.Bytes()
}

// CorruptGLB keeps a valid 12-byte header but breaks the JSON chunk.
func CorruptGLB() []byte {
	b := MinimalGLB()
	out := make([]byte, 0, len(b))
	out = append(out, b[:20]...)
	out = append(out, bytes.Repeat([]byte{'#'}, len(b)-20)...)
	return out
}

// Resource is one file served by Server.
type Resource struct {
	Body []byte
	// HeadStatus and GetStatus override the default 200/206 replies when non-zero.
	HeadStatus int
	GetStatus  int
}

// Server is an httptest server that records every request per path.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	resources map[string]Resource
	hits      map[string]int
	ranges    []string
}

// NewServer starts a server holding resources keyed by URL path.
func NewServer(resources map[string]Resource) *Server {
	s := &Server{resources: resources, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// URL returns the absolute locator for path.
func (s *Server) URL(path string) string {
	return s.Server.URL + path
}

// Hits returns the number of requests seen for path, all methods included.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests seen across all paths.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

// Ranges returns the Range headers received, in order.
func (s *Server) Ranges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	if rg := r.Header.Get("Range"); rg != "" {
		s.ranges = append(s.ranges, rg)
	}
	res, ok := s.resources[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodHead:
		if res.HeadStatus != 0 {
			w.WriteHeader(res.HeadStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if res.GetStatus != 0 {
			w.WriteHeader(res.GetStatus)
			return
		}
		body := res.Body
		if rg := r.Header.Get("Range"); strings.HasPrefix(rg, "bytes=0-11") && len(body) > 12 {
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write(body[:12])
			return
		}
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
