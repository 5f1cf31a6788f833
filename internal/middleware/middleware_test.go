package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/phobhub/phobhub/internal/auth"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/pkg/api"
)

type whoami struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

const (
	whoamiProcedure = "/test.v1.Identity/Whoami"
	pingProcedure   = "/test.v1.Identity/Ping"
)

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	interceptors := connect.WithInterceptors(RequireAuth(jwtManager, pingProcedure))

	identity := func(ctx context.Context, _ *connect.Request[api.Empty]) (*connect.Response[whoami], error) {
		return connect.NewResponse(&whoami{UserID: GetUserID(ctx), Email: GetEmail(ctx)}), nil
	}
	mux := http.NewServeMux()
	mux.Handle(whoamiProcedure, connect.NewUnaryHandler(whoamiProcedure, identity, connect.WithCodec(api.Codec{}), interceptors))
	mux.Handle(pingProcedure, connect.NewUnaryHandler(pingProcedure, identity, connect.WithCodec(api.Codec{}), interceptors))
	server := httptest.NewServer(mux)
	defer server.Close()

	call := func(procedure, token string) (*whoami, error) {
		client := connect.NewClient[api.Empty, whoami](http.DefaultClient, server.URL+procedure, connect.WithCodec(api.Codec{}))
		req := connect.NewRequest(&api.Empty{})
		if token != "" {
			req.Header().Set("Authorization", "Bearer "+token)
		}
		resp, err := client.CallUnary(context.Background(), req)
		if err != nil {
			return nil, err
		}
		return resp.Msg, nil
	}

	user := models.NewUser("alice@example.com", "Alice", "hash")
	user.ID = "user-1"
	token, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	t.Run("valid token sets the identity", func(t *testing.T) {
		got, err := call(whoamiProcedure, token)
		if err != nil {
			t.Fatalf("call failed: %v", err)
		}
		if got.UserID != user.ID || got.Email != "alice@example.com" {
			t.Errorf("unexpected identity %+v", got)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := call(whoamiProcedure, "")
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("expected unauthenticated, got %v", err)
		}
	})

	t.Run("public procedure skips the check", func(t *testing.T) {
		got, err := call(pingProcedure, "")
		if err != nil {
			t.Fatalf("call failed: %v", err)
		}
		if got.UserID != "" {
			t.Errorf("expected no identity, got %q", got.UserID)
		}
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def", "abc.def", false},
		{"bearer abc", "abc", false},
		{"", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
		{"Bearer", "", true},
		{"Bearer ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := bearerToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("bearerToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS("http://localhost:5173", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/phobhub.v1.GroupService/ListGroups", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if called {
			t.Error("preflight reached the handler")
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("unexpected origin header %q", got)
		}
	})

	t.Run("passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/phobhub.v1.GroupService/ListGroups", nil))
		if !called {
			t.Error("expected the handler to run")
		}
	})
}
