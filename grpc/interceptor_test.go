package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/velumani/cloudauth"
)

func newTestIssuer(t *testing.T) *cloudauth.TokenIssuer {
	t.Helper()
	issuer, err := cloudauth.NewTokenIssuer("test-secret-key", "cloudauth-test")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return issuer
}

func incomingContext(token string) context.Context {
	md := metadata.New(nil)
	if token != "" {
		md.Set("authorization", "Bearer "+token)
	}
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	issuer := newTestIssuer(t)
	user := &cloudauth.User{ID: 42, Email: "alice@example.com", DisplayName: "alice"}
	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name     string
		config   *InterceptorConfig
		method   string
		token    string
		wantCode codes.Code
		wantUser int64
	}{
		{
			name:     "valid token passes",
			config:   DefaultInterceptorConfig(),
			method:   "/auth.Users/GetProfile",
			token:    token,
			wantCode: codes.OK,
			wantUser: 42,
		},
		{
			name:     "missing token rejected",
			config:   DefaultInterceptorConfig(),
			method:   "/auth.Users/GetProfile",
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "garbage token rejected",
			config:   DefaultInterceptorConfig(),
			method:   "/auth.Users/GetProfile",
			token:    "not-a-jwt",
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "public method skips auth",
			config:   NewPublicMethodsConfig("/auth.Users/Health"),
			method:   "/auth.Users/Health",
			wantCode: codes.OK,
		},
		{
			name:     "optional auth passes without token",
			config:   OptionalAuthConfig(),
			method:   "/auth.Users/GetProfile",
			wantCode: codes.OK,
		},
		{
			name:     "optional auth still attaches claims",
			config:   OptionalAuthConfig(),
			method:   "/auth.Users/GetProfile",
			token:    token,
			wantCode: codes.OK,
			wantUser: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interceptor := UnaryAuthInterceptor(issuer, tt.config)

			var gotCtx context.Context
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				gotCtx = ctx
				return "ok", nil
			}

			_, err := interceptor(incomingContext(tt.token), nil,
				&grpc.UnaryServerInfo{FullMethod: tt.method}, handler)

			if tt.wantCode == codes.OK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := UserIDFromContext(gotCtx); got != tt.wantUser {
					t.Errorf("UserIDFromContext = %d, want %d", got, tt.wantUser)
				}
				return
			}

			if err == nil {
				t.Fatal("expected error, got none")
			}
			if got := status.Code(err); got != tt.wantCode {
				t.Errorf("status code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestUnaryAuthInterceptorExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t)

	// Sign a token that expired yesterday with the same secret the issuer uses.
	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, cloudauth.Claims{
		UserID: 7,
		Email:  "bob@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
	})
	expired, err := stale.SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	interceptor := UnaryAuthInterceptor(issuer, nil)
	_, err = interceptor(incomingContext(expired), nil,
		&grpc.UnaryServerInfo{FullMethod: "/auth.Users/GetProfile"},
		func(ctx context.Context, req interface{}) (interface{}, error) { return nil, nil })

	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("status code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestStreamAuthInterceptor(t *testing.T) {
	issuer := newTestIssuer(t)
	user := &cloudauth.User{ID: 9, Email: "carol@example.com"}
	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	interceptor := StreamAuthInterceptor(issuer, DefaultInterceptorConfig())

	var gotCtx context.Context
	handler := func(srv interface{}, ss grpc.ServerStream) error {
		gotCtx = ss.Context()
		return nil
	}

	stream := &fakeServerStream{ctx: incomingContext(token)}
	if err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/auth.Users/Watch"}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := UserIDFromContext(gotCtx); got != 9 {
		t.Errorf("UserIDFromContext = %d, want 9", got)
	}

	stream = &fakeServerStream{ctx: incomingContext("")}
	err = interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/auth.Users/Watch"}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("status code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestTokenFromMetadata(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"bearer prefix", "Bearer abc123", "abc123"},
		{"lowercase prefix", "bearer abc123", "abc123"},
		{"bare token", "abc123", "abc123"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := metadata.New(nil)
			if tt.value != "" {
				md.Set("authorization", tt.value)
			}
			ctx := metadata.NewIncomingContext(context.Background(), md)
			if got := tokenFromMetadata(ctx, "authorization"); got != tt.want {
				t.Errorf("tokenFromMetadata = %q, want %q", got, tt.want)
			}
		})
	}

	if got := tokenFromMetadata(context.Background(), "authorization"); got != "" {
		t.Errorf("tokenFromMetadata without metadata = %q, want empty", got)
	}
}

func TestTokenToOutgoingContext(t *testing.T) {
	ctx := TokenToOutgoingContext(context.Background(), "tok123")
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("no outgoing metadata")
	}
	values := md.Get("authorization")
	if len(values) != 1 || values[0] != "Bearer tok123" {
		t.Errorf("authorization = %v, want [Bearer tok123]", values)
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }
