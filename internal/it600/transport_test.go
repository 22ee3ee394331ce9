package it600

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

// fakeGateway is an httptest server speaking the encrypted protocol.
type fakeGateway struct {
	*httptest.Server
	enc *Encryptor

	// lastRequest holds the decrypted body of the most recent request.
	lastRequest []byte
	// respond produces the plaintext response for a request body.
	respond func(body []byte) []byte
	// raw, when set, is written verbatim instead of encrypting the
	// respond output. Simulates corrupted ciphertext on the wire.
	raw []byte
}

func newFakeGateway(t *testing.T, euid string) *fakeGateway {
	t.Helper()

	fg := &fakeGateway{enc: NewEncryptor(euid)}
	fg.respond = func([]byte) []byte {
		return []byte(`{"status":"success","id":[]}`)
	}

	fg.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
			return
		}
		plain, err := fg.enc.Decrypt(raw)
		if err != nil {
			// Wrong-key request: answer with bytes the client cannot
			// decrypt, like real firmware does.
			_, _ = w.Write([]byte("garbage"))
			return
		}
		fg.lastRequest = plain

		if fg.raw != nil {
			_, _ = w.Write(fg.raw)
			return
		}

		out, err := fg.enc.Encrypt(fg.respond(plain))
		if err != nil {
			t.Errorf("encrypting response: %v", err)
			return
		}
		_, _ = w.Write(out)
	}))

	t.Cleanup(fg.Server.Close)
	return fg
}

func (fg *fakeGateway) hostPort(t *testing.T) (string, int) {
	t.Helper()
	u, err := url.Parse(fg.URL)
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parsing server port: %v", err)
	}
	return u.Hostname(), port
}

func newTestTransport(t *testing.T, fg *fakeGateway, euid string) *Transport {
	t.Helper()
	host, port := fg.hostPort(t)
	return NewTransport(host, port, NewEncryptor(euid), 5*time.Second, nil)
}

func TestTransport_Request(t *testing.T) {
	fg := newFakeGateway(t, testEUID)
	tr := newTestTransport(t, fg, testEUID)

	env, err := tr.Request(context.Background(), "read", readAllRequest)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	if env.Status != "success" {
		t.Errorf("Status = %q, want success", env.Status)
	}

	var sent map[string]any
	if err := json.Unmarshal(fg.lastRequest, &sent); err != nil {
		t.Fatalf("decoding sent request: %v", err)
	}
	if sent["requestAttr"] != "readall" {
		t.Errorf("requestAttr = %v, want readall", sent["requestAttr"])
	}
}

func TestTransport_RequestRejected(t *testing.T) {
	fg := newFakeGateway(t, testEUID)
	fg.respond = func([]byte) []byte {
		return []byte(`{"status":"error"}`)
	}
	tr := newTestTransport(t, fg, testEUID)

	_, err := tr.Request(context.Background(), "write", map[string]any{"requestAttr": "write"})
	if !errors.Is(err, ErrCommandRejected) {
		t.Errorf("error = %v, want ErrCommandRejected", err)
	}
}

func TestTransport_RequestWrongKey(t *testing.T) {
	fg := newFakeGateway(t, testEUID)
	tr := newTestTransport(t, fg, "AAAAAAAAAAAAAAAA")

	_, err := tr.Request(context.Background(), "read", readAllRequest)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestTransport_RequestUnreachable(t *testing.T) {
	tr := NewTransport("127.0.0.1", 1, NewEncryptor(testEUID), 500*time.Millisecond, nil)

	_, err := tr.Request(context.Background(), "read", readAllRequest)
	if !errors.Is(err, ErrGatewayUnreachable) {
		t.Errorf("error = %v, want ErrGatewayUnreachable", err)
	}
}

func TestTransport_RequestContextCancelled(t *testing.T) {
	fg := newFakeGateway(t, testEUID)
	tr := newTestTransport(t, fg, testEUID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Request(ctx, "read", readAllRequest)
	if !errors.Is(err, ErrGatewayUnreachable) {
		t.Errorf("error = %v, want ErrGatewayUnreachable", err)
	}
}

func TestTransport_Probe(t *testing.T) {
	fg := newFakeGateway(t, testEUID)
	tr := newTestTransport(t, fg, testEUID)

	if err := tr.Probe(context.Background()); err != nil {
		t.Errorf("Probe() error = %v", err)
	}
}

func TestTransport_ProbeUnreachable(t *testing.T) {
	tr := NewTransport("127.0.0.1", 1, NewEncryptor(testEUID), 500*time.Millisecond, nil)

	if err := tr.Probe(context.Background()); !errors.Is(err, ErrGatewayUnreachable) {
		t.Errorf("Probe() error = %v, want ErrGatewayUnreachable", err)
	}
}

func TestTransport_MalformedJSONResponse(t *testing.T) {
	fg := newFakeGateway(t, testEUID)
	fg.respond = func([]byte) []byte {
		return []byte("not json at all")
	}
	tr := newTestTransport(t, fg, testEUID)

	_, err := tr.Request(context.Background(), "read", readAllRequest)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}
